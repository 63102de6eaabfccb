package driving

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// QueryService is the serving engine behind every outer surface. It answers
// from one read-only index store snapshot until Reload is called.
type QueryService interface {
	AnswerService
	RetrievalService

	// RetrieveOptions returns the configured retrieval defaults.
	RetrieveOptions() domain.RetrieveOptions

	// Reload swaps in the latest generation. On failure the previous
	// snapshot keeps serving.
	Reload(ctx context.Context) (domain.StoreInfo, error)

	// Info describes the serving generation.
	Info() (domain.StoreInfo, error)
}

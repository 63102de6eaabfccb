package driving

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// RetrievalService finds and ranks the passages relevant to a query.
type RetrievalService interface {
	// Retrieve embeds the query, searches the index store and returns the
	// filtered, deduplicated and re-ranked results. On embedding failure it
	// returns an empty result together with domain.ErrEmbeddingUnavailable.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievalResult, error)
}

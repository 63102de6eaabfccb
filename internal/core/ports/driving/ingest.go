package driving

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// IngestService turns a document set into a new index store generation.
type IngestService interface {
	// Ingest parses, chunks and embeds the documents under paths and
	// persists the result as the current generation.
	Ingest(ctx context.Context, paths []string, opts domain.IngestOptions) (*domain.IngestReport, error)
}

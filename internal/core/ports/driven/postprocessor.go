package driven

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// PassageProcessor is one stage of the ingestion pipeline
// (e.g., cleaning, chunking, variant tagging).
type PassageProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the segment and the passages produced so far.
	// Stages before the chunker edit the segment and return passages unchanged.
	// The chunker creates passages; later stages annotate them.
	Process(ctx context.Context, seg *domain.Segment, passages []domain.Passage) ([]domain.Passage, error)
}

// PassagePipeline chains PassageProcessors.
type PassagePipeline interface {
	// Process runs one segment through every stage in order.
	Process(ctx context.Context, seg domain.Segment) ([]domain.Passage, error)
}

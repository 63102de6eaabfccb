package driving

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// EvaluationService measures retrieval and answer quality on a dataset.
type EvaluationService interface {
	// Evaluate runs every question and aggregates the metrics.
	Evaluate(ctx context.Context, questions []domain.EvalQuestion, opts domain.EvalOptions) (*domain.EvalReport, error)
}

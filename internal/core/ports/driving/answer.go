package driving

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// AnswerService answers questions grounded in the indexed corpus.
type AnswerService interface {
	// Answer runs the grounding gate for a question. Per-query failures are
	// reported in the record, never as an error. Only an empty question
	// returns domain.ErrInvalidInput.
	Answer(ctx context.Context, question string) (*domain.AnswerRecord, error)
}

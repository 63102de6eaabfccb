package driven

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// AIConfigValidator checks provider settings by constructing and pinging
// the provider.
type AIConfigValidator interface {
	// ValidateEmbedding validates embedding provider settings.
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ValidateLLM validates generation provider settings.
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}

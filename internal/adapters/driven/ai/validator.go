package ai

import (
	"context"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates provider settings by creating and pinging the
// provider, then closing it.
type ConfigValidator struct{}

// NewConfigValidator creates a new provider config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates embedding provider settings.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, settings, domain.RateLimitSettings{})
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLM validates generation provider settings.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, settings, domain.RateLimitSettings{})
	if err != nil {
		return err
	}
	return svc.Close()
}

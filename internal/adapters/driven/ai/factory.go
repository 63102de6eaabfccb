// Package ai creates embedding and generation providers from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/kurator/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/kurator/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/kurator/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/kurator/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/kurator/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/kurator/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// pingTimeout bounds provider connectivity checks.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding provider named in settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider not set", domain.ErrInvalidProvider)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidProvider,
			settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s does not provide embeddings, use ollama or openai",
			domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMService creates the generation provider named in settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: generation provider not set", domain.ErrInvalidProvider)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidProvider,
			settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported generation provider %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates the embedding provider, pings it
// and wraps it in a rate limiter. Failures unwrap to domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings, limits domain.RateLimitSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}

	return NewRateLimitedEmbedding(svc, limits), nil
}

// CreateAndValidateLLMService creates the generation provider, pings it
// and wraps it in a rate limiter. Failures unwrap to domain.ErrGenerationUnavailable.
func CreateAndValidateLLMService(
	ctx context.Context, settings *domain.LLMSettings, limits domain.RateLimitSettings,
) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrGenerationUnavailable, settings.Provider, err)
	}

	return NewRateLimitedLLM(svc, limits), nil
}

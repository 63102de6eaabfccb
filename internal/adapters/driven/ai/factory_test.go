package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

func ollamaServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantErr  bool
	}{
		{name: "nil settings", settings: nil, wantErr: true},
		{name: "no provider", settings: &domain.EmbeddingSettings{}, wantErr: true},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai with key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk"},
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  true,
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "sk"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidProvider)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantModel string
		wantErr   bool
	}{
		{name: "nil settings", settings: nil, wantErr: true},
		{
			name:      "ollama default model",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "mistral:7b-instruct-q4_0",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "sk"},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:      "gemini",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "key"},
			wantModel: "gemini-2.0-flash",
		},
		{
			name:     "gemini without key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderGemini},
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			settings: &domain.LLMSettings{Provider: "mystery", APIKey: "sk"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(ctx, tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	ctx := context.Background()
	limits := domain.RateLimitSettings{RequestsPerSecond: 10, Burst: 1}

	healthy := ollamaServer(t, true)
	svc, err := CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: healthy.URL, Model: "nomic-embed-text",
	}, limits)
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedEmbedding{}, svc)
	assert.Equal(t, 768, svc.Dimensions())

	down := ollamaServer(t, false)
	_, err = CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: down.URL,
	}, limits)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{}, limits)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrInvalidProvider)
}

func TestCreateAndValidateLLMService(t *testing.T) {
	ctx := context.Background()

	healthy := ollamaServer(t, true)
	svc, err := CreateAndValidateLLMService(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama, BaseURL: healthy.URL,
	}, domain.RateLimitSettings{})
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedLLM{}, svc)

	down := ollamaServer(t, false)
	_, err = CreateAndValidateLLMService(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama, BaseURL: down.URL,
	}, domain.RateLimitSettings{})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

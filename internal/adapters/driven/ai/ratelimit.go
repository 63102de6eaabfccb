package ai

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
)

func newLimiter(limits domain.RateLimitSettings) *rate.Limiter {
	if limits.RequestsPerSecond <= 0 {
		return nil
	}
	burst := limits.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limits.RequestsPerSecond), burst)
}

// wait blocks until the limiter admits one request. A nil limiter admits
// everything.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return ctx.Err()
	}
	return l.Wait(ctx)
}

// RateLimitedEmbedding bounds the request rate of an embedding provider.
// A batch counts as one request.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedding wraps svc. Local providers are not limited.
func NewRateLimitedEmbedding(svc driven.EmbeddingService, limits domain.RateLimitSettings) *RateLimitedEmbedding {
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: newLimiter(limits)}
}

// Embed waits for the limiter, then embeds.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for the limiter, then embeds the batch.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}

// RateLimitedLLM bounds the request rate of a generation provider.
type RateLimitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// NewRateLimitedLLM wraps svc.
func NewRateLimitedLLM(svc driven.LLMService, limits domain.RateLimitSettings) *RateLimitedLLM {
	return &RateLimitedLLM{LLMService: svc, limiter: newLimiter(limits)}
}

// Generate waits for the limiter, then generates.
func (r *RateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := wait(ctx, r.limiter); err != nil {
		return "", err
	}
	return r.LLMService.Generate(ctx, prompt, opts)
}

package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure the decorators implement their interfaces.
var (
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
)

// newLimiter returns a token bucket allowing perMinute requests per minute,
// bursting up to the same number.
func newLimiter(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
}

// RateLimitedLLM throttles Generate calls of the wrapped service.
type RateLimitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// WithLLMRateLimit wraps svc so it makes at most perMinute requests per
// minute. A non-positive limit returns svc unchanged.
func WithLLMRateLimit(svc driven.LLMService, perMinute int) driven.LLMService {
	if svc == nil || perMinute <= 0 {
		return svc
	}
	return &RateLimitedLLM{LLMService: svc, limiter: newLimiter(perMinute)}
}

// Generate waits for a token, then delegates.
func (r *RateLimitedLLM) Generate(ctx context.Context, req driven.GenerateRequest) (domain.Reply, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", domain.ErrLLMUnavailable, err)
	}
	return r.LLMService.Generate(ctx, req)
}

// RateLimitedEmbedding throttles Embed and EmbedBatch calls of the wrapped
// service. A batch costs one token.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WithEmbeddingRateLimit wraps svc so it makes at most perMinute requests
// per minute. A non-positive limit returns svc unchanged.
func WithEmbeddingRateLimit(svc driven.EmbeddingService, perMinute int) driven.EmbeddingService {
	if svc == nil || perMinute <= 0 {
		return svc
	}
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: newLimiter(perMinute)}
}

// Embed waits for a token, then delegates.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token, then delegates.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}

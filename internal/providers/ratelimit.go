package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder throttles outbound embedding calls with a token bucket
// so batch fan-out cannot exceed the provider's rate limit regardless of
// worker concurrency.
type RateLimitedEmbedder struct {
	inner  EmbeddingProvider
	bucket *rate.Limiter
}

func NewRateLimitedEmbedder(inner EmbeddingProvider, perSecond float64) *RateLimitedEmbedder {
	if perSecond <= 0 {
		perSecond = 5
	}
	return &RateLimitedEmbedder{
		inner:  inner,
		bucket: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (r *RateLimitedEmbedder) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, ProviderInfo{}, err
	}
	return r.inner.Embed(ctx, req)
}

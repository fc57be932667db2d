package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimited caps the request rate of an embedding service. Each text
// counts as one request. Ping is not limited.
type RateLimited struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimited wraps svc to allow at most perSecond embedding requests
// per second, with a burst of one.
func NewRateLimited(svc driven.EmbeddingService, perSecond float64) *RateLimited {
	return &RateLimited{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Embed waits for the limiter, then embeds text.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch embeds texts one at a time under the limiter.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := r.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Package ai provides factory functions for creating embedding service
// adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	hashingembed "github.com/custodia-labs/synindex/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/synindex/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/synindex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and
// checks the model is reachable. Every failure wraps
// domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider not configured. Run 'synindex config show' to check",
			domain.ErrEmbeddingUnavailable)
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'synindex config show' to check",
			domain.ErrEmbeddingUnavailable, err)
	}

	// The store is sized from Dimensions, so the model must agree with it.
	vec, err := svc.Embed(pingCtx, "ping")
	if err == nil && len(vec) != svc.Dimensions() {
		err = fmt.Errorf("%w: %s returned %d values, want %d",
			domain.ErrDimensionMismatch, svc.ModelName(), len(vec), svc.Dimensions())
	}
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: test embedding failed (%w). Set embedding.dimensions to the model's vector size",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service for settings,
// rate limited when RequestsPerSecond is set. Returns nil if the provider
// is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)
	case domain.AIProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)
	case domain.AIProviderHashing:
		svc = hashingembed.NewEmbeddingService(settings.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	if settings.RequestsPerSecond > 0 {
		svc = NewRateLimited(svc, settings.RequestsPerSecond)
	}
	return svc, nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

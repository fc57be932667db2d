package services

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/core/ports/driving"
	"github.com/custodia-labs/synindex/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService ranks stored fragments against a natural-language query.
// It is read-only and safe for concurrent use.
type SearchService struct {
	store        driven.FragmentStore
	embedder     driven.EmbeddingService
	defaultLimit int

	// queries caches query vectors. Nil when caching is disabled.
	queries *lru.Cache[string, []float32]
}

// NewSearchService creates a search service. defaultLimit applies when a
// request has no limit; cacheSize <= 0 disables the query vector cache.
func NewSearchService(
	store driven.FragmentStore,
	embedder driven.EmbeddingService,
	defaultLimit int,
	cacheSize int,
) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultSearchLimit
	}
	s := &SearchService{
		store:        store,
		embedder:     embedder,
		defaultLimit: defaultLimit,
	}
	if cacheSize > 0 {
		// Only fails for a non-positive size.
		s.queries, _ = lru.New[string, []float32](cacheSize)
	}
	return s
}

// Search embeds query and returns the closest fragments, best first.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if s.store == nil || s.embedder == nil {
		return nil, domain.ErrServiceNotReady
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	ctx, span := tracer.Start(ctx, "search", trace.WithAttributes(attribute.Int("limit", limit)))
	results, err := s.search(ctx, query, limit)
	span.SetAttributes(attribute.Int("results", len(results)))
	endSpan(span, err)
	return results, err
}

func (s *SearchService) search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	vec, err := s.queryVector(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ranked, err := s.store.Rank(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking fragments: %w", err)
	}

	results := make([]domain.SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = domain.SearchResult{Fragment: r.Fragment, Score: r.Score}
	}
	logger.Debug("Query %q: %d results", query, len(results))
	return results, nil
}

func (s *SearchService) queryVector(ctx context.Context, query string) ([]float32, error) {
	if s.queries != nil {
		if vec, ok := s.queries.Get(query); ok {
			return vec, nil
		}
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if s.queries != nil {
		s.queries.Add(query, vec)
	}
	return vec, nil
}

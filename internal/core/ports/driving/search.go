package driving

import (
	"context"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// SearchService answers natural-language queries over stored fragments.
type SearchService interface {
	// Search embeds the query and returns the closest fragments, highest
	// score first. An empty query or empty store gives an empty slice.
	// A service built without an embedder or store returns
	// domain.ErrServiceNotReady.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

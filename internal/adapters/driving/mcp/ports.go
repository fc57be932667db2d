package mcp

import (
	"context"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driving"
)

// DocumentCatalog lists what the store currently holds.
// driven.FragmentStore satisfies it.
type DocumentCatalog interface {
	ListDocumentPaths(ctx context.Context) ([]string, error)
	ListByDocument(ctx context.Context, path string) ([]domain.Fragment, error)
}

// Ports aggregates the dependencies of the MCP server.
type Ports struct {
	// Search answers the search tool.
	Search driving.SearchService

	// Documents backs the document resources. Optional.
	Documents DocumentCatalog
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

package mcp

import (
	"context"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	opts    domain.SearchOptions
	query   string
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

// mockCatalog is a mock implementation of DocumentCatalog.
type mockCatalog struct {
	fragments map[string][]domain.Fragment
	err       error
	requested string
}

func (m *mockCatalog) ListDocumentPaths(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	paths := make([]string, 0, len(m.fragments))
	for path := range m.fragments {
		paths = append(paths, path)
	}
	return paths, nil
}

func (m *mockCatalog) ListByDocument(_ context.Context, path string) ([]domain.Fragment, error) {
	m.requested = path
	if m.err != nil {
		return nil, m.err
	}
	return m.fragments[path], nil
}

func auditFragment() domain.Fragment {
	parent := int64(1)
	return domain.Fragment{
		ID:            2,
		DocumentPath:  "/flows/audit.xml",
		ContainerName: "audit",
		ContainerKind: domain.ContainerSequence,
		Level:         domain.LevelLeaf,
		Kind:          "log",
		Name:          "log",
		Span:          domain.Span{Start: 2, End: 2},
		ParentID:      &parent,
		EmbeddingText: "log level=full",
	}
}

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/synindex/internal/connectors/filesystem"
	"github.com/custodia-labs/synindex/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"natural-language description of the configuration to find"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of fragments to return (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []FragmentOutput `json:"results"`
	Count   int              `json:"count"`
}

// FragmentOutput is one matched fragment.
type FragmentOutput struct {
	ID            int64   `json:"id"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	Path          string  `json:"path"`
	URI           string  `json:"uri"`
	ContainerKind string  `json:"container_kind"`
	ContainerName string  `json:"container_name"`
	Level         string  `json:"level"`
	Kind          string  `json:"kind"`
	Name          string  `json:"name,omitempty"`
	StartLine     int     `json:"start_line"`
	EndLine       int     `json:"end_line"`
	Score         float64 `json:"score,omitempty"`
	Summary       string  `json:"summary,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find Synapse configuration fragments (APIs, sequences, mediators) matching a description",
	}, s.handleSearch)
}

// handleSearch handles the search tool invocation.
// A zero limit defers to the service default.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{Limit: max(input.Limit, 0)}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]FragmentOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		out := toFragmentOutput(&results[i].Fragment)
		out.Score = results[i].Score
		output.Results[i] = out
	}

	return nil, output, nil
}

func toFragmentOutput(f *domain.Fragment) FragmentOutput {
	return FragmentOutput{
		ID:            f.ID,
		ParentID:      f.ParentID,
		Path:          f.DocumentPath,
		URI:           filesystem.ToURI(f.DocumentPath),
		ContainerKind: f.ContainerKind.String(),
		ContainerName: f.ContainerName,
		Level:         f.Level.String(),
		Kind:          f.Kind,
		Name:          f.Name,
		StartLine:     f.Span.Start,
		EndLine:       f.Span.End,
		Summary:       f.EmbeddingText,
	}
}

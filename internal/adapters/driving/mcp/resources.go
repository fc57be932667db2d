package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/synindex/internal/connectors/filesystem"
)

const (
	uriScheme    = "synindex://"
	documentsURI = uriScheme + "documents"
	jsonMIME     = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Documents with stored fragments",
		MIMEType:    jsonMIME,
	}, s.handleDocumentsResource)

	// Absolute paths start with a slash, so the path follows directly.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "{+path}",
		Name:        "document-fragments",
		Description: "Stored fragments of one document in document order",
		MIMEType:    jsonMIME,
	}, s.handleDocumentFragmentsResource)
}

type documentInfo struct {
	Path     string `json:"path"`
	URI      string `json:"uri"`
	Resource string `json:"resource"`
}

// handleDocumentsResource lists every document with stored fragments.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return jsonResult(req.Params.URI, []documentInfo{})
	}

	paths, err := s.ports.Documents.ListDocumentPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(paths))
	for i, path := range paths {
		infos[i] = documentInfo{
			Path:     path,
			URI:      filesystem.ToURI(path),
			Resource: documentResourceURI(path),
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDocumentFragmentsResource returns the fragments of one document.
func (s *Server) handleDocumentFragmentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	path := extractDocumentPath(req.Params.URI)
	if path == "" || s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	fragments, err := s.ports.Documents.ListByDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("listing fragments of %s: %w", path, err)
	}
	if len(fragments) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	outputs := make([]FragmentOutput, len(fragments))
	for i := range fragments {
		outputs[i] = toFragmentOutput(&fragments[i])
	}
	return jsonResult(req.Params.URI, outputs)
}

func documentResourceURI(path string) string {
	return documentsURI + (&url.URL{Path: path}).EscapedPath()
}

// extractDocumentPath returns the document path addressed by uri, or ""
// if uri does not name one.
func extractDocumentPath(uri string) string {
	rest, ok := strings.CutPrefix(uri, documentsURI)
	if !ok || !strings.HasPrefix(rest, "/") {
		return ""
	}
	path, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return path
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     string(data),
		}},
	}, nil
}

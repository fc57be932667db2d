// Package mcp exposes the fragment index over the Model Context Protocol.
// It lets assistants search stored fragments and browse indexed documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

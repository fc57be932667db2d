package filesystem

import (
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// ToURI converts an absolute document path into a file:// URI.
func ToURI(path string) string {
	return fileScheme + filepath.ToSlash(path)
}

// FromURI converts a file:// URI to a local path.
// Bare paths pass through unchanged.
func FromURI(uri string) string {
	if strings.HasPrefix(uri, fileScheme) {
		return filepath.FromSlash(strings.TrimPrefix(uri, fileScheme))
	}
	return uri
}

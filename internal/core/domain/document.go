package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document represents one tracked configuration file.
// The raw content is held only for the duration of a reconciliation pass;
// it is never persisted.
type Document struct {
	// Path identifies the document.
	Path string

	// Content is the raw file content.
	Content []byte

	// Fingerprint is the hex SHA-256 of Content.
	Fingerprint string

	// ObservedAt is when the tracker last saw this revision change.
	ObservedAt time.Time
}

// Fingerprint computes the content fingerprint of a document revision.
// Equality of fingerprints is the only staleness signal; modification
// times are never consulted.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NewDocument builds a Document with its fingerprint filled in.
func NewDocument(path string, content []byte) Document {
	return Document{
		Path:        path,
		Content:     content,
		Fingerprint: Fingerprint(content),
		ObservedAt:  time.Now().UTC(),
	}
}

// ScanResult is the delta between two tracker observations.
type ScanResult struct {
	// Changed holds documents that are new or whose fingerprint differs
	// from the previous scan.
	Changed []Document

	// Removed holds paths that were known before but are gone now.
	Removed []string
}

// IsEmpty reports whether the scan found nothing to do.
func (r ScanResult) IsEmpty() bool {
	return len(r.Changed) == 0 && len(r.Removed) == 0
}

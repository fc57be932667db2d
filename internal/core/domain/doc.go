// Package domain defines the core business entities for synindex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A tracked configuration file and its content fingerprint
//   - TransientFragment: One chunking pass's view of a document element
//   - Fragment: A persisted, embedded fragment with a store-assigned identity
//   - ScanResult: The delta reported by the fingerprint tracker
//
// It also holds the similarity metric used for ranking, because both store
// implementations and the query engine must agree on it.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

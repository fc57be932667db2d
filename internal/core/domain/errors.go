package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Returned by the fragment store when a span is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnparsable indicates a document could not be parsed into elements.
	// Chunking yields no fragments and reconciliation leaves the store untouched.
	ErrUnparsable = errors.New("document unparsable")

	// ErrDimensionMismatch indicates a vector does not match the configured
	// embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrReferentialIntegrity indicates a fragment references a parent that
	// does not exist. The pipeline never produces this; seeing it means the
	// store layer is broken.
	ErrReferentialIntegrity = errors.New("parent fragment does not exist")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the fragment store could not be opened.
	ErrStoreUnavailable = errors.New("fragment store unavailable")

	// ErrServiceNotReady indicates the query engine was not initialised.
	// Distinct from an empty result set.
	ErrServiceNotReady = errors.New("service not ready")
)

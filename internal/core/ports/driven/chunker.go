package driven

import (
	"context"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// Chunker decomposes one document into an ordered forest of fragments.
// Implementations do no I/O beyond reading the content they are given.
type Chunker interface {
	// Chunk returns fragments in depth-first document order, so every
	// parent precedes its children. An unparsable or empty document
	// yields an empty list and an error wrapping domain.ErrUnparsable.
	Chunk(ctx context.Context, path string, content []byte) ([]domain.TransientFragment, error)

	// Name returns the chunker identifier for logging.
	Name() string
}

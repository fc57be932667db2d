package driven

import (
	"context"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// FragmentStore owns persisted fragments.
// Every operation is atomic with respect to a single row.
type FragmentStore interface {
	// Insert assigns a fresh identity, persists the row and returns the
	// identity. The fragment's ID field is ignored. A duplicate
	// (document, span) returns domain.ErrAlreadyExists; a missing parent
	// returns domain.ErrReferentialIntegrity; a vector of the wrong size
	// returns domain.ErrDimensionMismatch.
	Insert(ctx context.Context, fragment *domain.Fragment) (int64, error)

	// Update overwrites the mutable fields of an existing row. Identity
	// and document path are unchanged. Returns domain.ErrNotFound for an
	// unknown id and never creates a row.
	Update(ctx context.Context, id int64, fragment *domain.Fragment) error

	// Get returns a fragment by identity, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Fragment, error)

	// Delete removes one fragment and every fragment whose parent chain
	// leads to it. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id int64) error

	// DeleteByDocument removes all fragments of a document and returns
	// how many rows went.
	DeleteByDocument(ctx context.Context, path string) (int, error)

	// ListByDocument returns all live fragments of one document.
	ListByDocument(ctx context.Context, path string) ([]domain.Fragment, error)

	// ListAll returns all live fragments in insertion order.
	ListAll(ctx context.Context) ([]domain.Fragment, error)

	// ListDocumentPaths returns every document path with stored fragments.
	ListDocumentPaths(ctx context.Context) ([]string, error)

	// Rank scores every stored vector against query and returns the topK
	// highest, descending, ties in insertion order.
	Rank(ctx context.Context, query []float32, topK int) ([]domain.ScoredFragment, error)

	// Stats returns document and fragment counts.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// EnsureModel records the embedding model and dimension. If a
	// different model was recorded, every fragment is cleared first and
	// cleared is true.
	EnsureModel(ctx context.Context, model string, dimensions int) (cleared bool, err error)

	// Close releases the store handle.
	Close() error
}

package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// Reconciler brings the stored fragments of one document in line with
// its current content.
type Reconciler interface {
	// Reconcile chunks doc, diffs against stored fragments by span and
	// applies the minimal inserts, updates and deletes.
	Reconcile(ctx context.Context, doc domain.Document) (domain.ReconcileStats, error)
}

// IndexService drives reconciliation over the configured roots.
type IndexService interface {
	// Bootstrap reconciles every discovered document and prunes stored
	// documents that no longer exist.
	Bootstrap(ctx context.Context) (domain.IndexRun, error)

	// Poll reconciles documents changed since the last scan and deletes
	// fragments of removed ones.
	Poll(ctx context.Context) (domain.IndexRun, error)

	// Status returns the current index state.
	Status(ctx context.Context) (*IndexStatus, error)
}

// IndexStatus represents the current state of the index.
type IndexStatus struct {
	// Running indicates if a cycle is currently in progress.
	Running bool

	// Model is the embedding model the store was built with.
	Model string

	// Documents is the number of documents with stored fragments.
	Documents int

	// Fragments is the number of stored fragments.
	Fragments int

	// Tracked is the number of documents the tracker knows about.
	Tracked int

	// DocumentsProcessed is the count of documents reconciled since start.
	DocumentsProcessed int

	// ErrorCount is the number of failed document passes since start.
	ErrorCount int

	// LastRun is when the last cycle finished.
	LastRun time.Time
}

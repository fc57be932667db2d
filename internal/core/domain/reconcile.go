package domain

import "fmt"

// ReconcileStats counts the writes one reconciliation pass made.
type ReconcileStats struct {
	// Path is the reconciled document.
	Path string

	// Fragments is the number of fragments the chunker produced.
	Fragments int

	// Inserted counts new rows.
	Inserted int

	// Updated counts rows rewritten with a fresh vector.
	Updated int

	// Reparented counts rows rewritten without a new vector because their
	// parent or enclosing container changed while their text did not.
	Reparented int

	// Moved counts rows whose text reappeared at a different span. The
	// row keeps its identity and vector.
	Moved int

	// Deleted counts obsolete rows removed, including cascaded descendants.
	Deleted int

	// Unchanged counts rows matched with no write.
	Unchanged int

	// Skipped counts fragments dropped because embedding failed.
	Skipped int

	// EmbedCalls counts calls to the embedding service.
	EmbedCalls int

	// Incomplete is set when any fragment was skipped. The document
	// should be retried on the next cycle.
	Incomplete bool
}

// Writes returns the number of store mutations made.
func (s ReconcileStats) Writes() int {
	return s.Inserted + s.Updated + s.Reparented + s.Moved + s.Deleted
}

// IsNoop reports whether the pass made no writes and no embedding calls.
func (s ReconcileStats) IsNoop() bool {
	return s.Writes() == 0 && s.EmbedCalls == 0
}

// Add accumulates other into s. Path is left unchanged.
func (s *ReconcileStats) Add(other ReconcileStats) {
	s.Fragments += other.Fragments
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Reparented += other.Reparented
	s.Moved += other.Moved
	s.Deleted += other.Deleted
	s.Unchanged += other.Unchanged
	s.Skipped += other.Skipped
	s.EmbedCalls += other.EmbedCalls
	s.Incomplete = s.Incomplete || other.Incomplete
}

// String formats the counters for log lines.
func (s ReconcileStats) String() string {
	return fmt.Sprintf("fragments=%d inserted=%d updated=%d reparented=%d moved=%d deleted=%d unchanged=%d skipped=%d embeds=%d",
		s.Fragments, s.Inserted, s.Updated, s.Reparented, s.Moved, s.Deleted, s.Unchanged, s.Skipped, s.EmbedCalls)
}

// IndexRun summarises one bootstrap or poll cycle.
type IndexRun struct {
	// Documents is the number of documents reconciled.
	Documents int

	// Removed is the number of documents whose fragments were deleted.
	Removed int

	// Failed lists documents whose pass returned an error.
	Failed []string

	// Stats aggregates every reconciled document.
	Stats ReconcileStats
}

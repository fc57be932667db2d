package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/core/ports/driving"
	"github.com/custodia-labs/synindex/internal/logger"
)

// Ensure Reconciler implements the interface.
var _ driving.Reconciler = (*Reconciler)(nil)

// Reconciler brings the stored fragments of a document in line with its
// current content using the fewest embedding calls and writes.
//
// Fragments are matched to stored rows by span. Rows left over after span
// matching are offered to unmatched fragments with identical embedding
// text, so a block that only shifted lines keeps its identity and vector.
type Reconciler struct {
	chunker  driven.Chunker
	store    driven.FragmentStore
	embedder driven.EmbeddingService
}

// NewReconciler creates a reconciler.
func NewReconciler(
	chunker driven.Chunker,
	store driven.FragmentStore,
	embedder driven.EmbeddingService,
) *Reconciler {
	return &Reconciler{
		chunker:  chunker,
		store:    store,
		embedder: embedder,
	}
}

// Reconcile chunks doc and applies the minimal diff against its stored rows.
//
// An unparsable document returns an error wrapping domain.ErrUnparsable
// and leaves the store untouched. Embedding failures skip the affected
// fragment and mark the result Incomplete. Store errors abort the pass.
func (r *Reconciler) Reconcile(ctx context.Context, doc domain.Document) (domain.ReconcileStats, error) {
	ctx, span := tracer.Start(ctx, "reconcile",
		trace.WithAttributes(attribute.String("document.path", doc.Path)))

	stats, err := r.reconcile(ctx, doc)

	span.SetAttributes(
		attribute.Int("fragments", stats.Fragments),
		attribute.Int("writes", stats.Writes()),
		attribute.Int("embed_calls", stats.EmbedCalls),
		attribute.Bool("incomplete", stats.Incomplete),
	)
	endSpan(span, err)
	return stats, err
}

func (r *Reconciler) reconcile(ctx context.Context, doc domain.Document) (domain.ReconcileStats, error) {
	stats := domain.ReconcileStats{Path: doc.Path}
	if r.chunker == nil || r.store == nil || r.embedder == nil {
		return stats, domain.ErrServiceNotReady
	}

	fragments, err := r.chunker.Chunk(ctx, doc.Path, doc.Content)
	if err != nil {
		return stats, err
	}
	stats.Fragments = len(fragments)

	existing, err := r.store.ListByDocument(ctx, doc.Path)
	if err != nil {
		return stats, fmt.Errorf("listing fragments of %s: %w", doc.Path, err)
	}

	matches, obsolete := matchFragments(fragments, existing)

	p := &pass{
		reconciler: r,
		doc:        doc,
		stats:      &stats,
		ids:        make(map[int]int64, len(fragments)),
		parents:    make(map[int64]*int64, len(fragments)),
		skipped:    make(map[int]bool),
	}
	for i := range fragments {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := p.apply(ctx, &fragments[i], matches[i]); err != nil {
			return stats, err
		}
	}

	if err := p.deleteObsolete(ctx, obsolete); err != nil {
		return stats, err
	}

	logger.Debug("Reconciled %s: %s", doc.Path, stats)
	return stats, nil
}

// match pairs a fragment with the stored row it replaces.
type match struct {
	// row is nil for a fragment with no stored counterpart.
	row *domain.Fragment

	// moved is set when row was matched by text at a different span.
	moved bool
}

// matchFragments pairs fragments with stored rows, first by span and then
// by identical embedding text. Rows that stay unpaired are obsolete.
// existing must be in insertion order so text matches are deterministic.
func matchFragments(fragments []domain.TransientFragment, existing []domain.Fragment) ([]match, []domain.Fragment) {
	bySpan := make(map[domain.Span]*domain.Fragment, len(existing))
	for i := range existing {
		bySpan[existing[i].Span] = &existing[i]
	}

	matches := make([]match, len(fragments))
	used := make(map[int64]bool, len(existing))
	for i := range fragments {
		if row, ok := bySpan[fragments[i].Span]; ok {
			matches[i] = match{row: row}
			used[row.ID] = true
		}
	}

	byText := make(map[string][]*domain.Fragment)
	for i := range existing {
		if !used[existing[i].ID] {
			byText[existing[i].EmbeddingText] = append(byText[existing[i].EmbeddingText], &existing[i])
		}
	}
	for i := range fragments {
		if matches[i].row != nil {
			continue
		}
		queue := byText[fragments[i].EmbeddingText]
		if len(queue) == 0 {
			continue
		}
		matches[i] = match{row: queue[0], moved: true}
		byText[fragments[i].EmbeddingText] = queue[1:]
		used[queue[0].ID] = true
	}

	var obsolete []domain.Fragment
	for i := range existing {
		if !used[existing[i].ID] {
			obsolete = append(obsolete, existing[i])
		}
	}
	return matches, obsolete
}

// pass holds the state of one reconciliation. It is never shared.
type pass struct {
	reconciler *Reconciler
	doc        domain.Document
	stats      *domain.ReconcileStats

	// ids maps a fragment's local index to its store identity, filled in
	// document order so a parent is always resolved before its children.
	ids map[int]int64

	// parents records the parent each surviving row ends the pass with.
	parents map[int64]*int64

	// skipped holds the local indices of fragments not written this pass.
	skipped map[int]bool
}

// apply writes one fragment.
func (p *pass) apply(ctx context.Context, t *domain.TransientFragment, m match) error {
	parentID, resolved := p.resolveParent(t)
	if !resolved {
		// The parent was not written, so a stored row keeps describing
		// the old container until a later pass succeeds.
		return p.skip(ctx, t, m, nil, false)
	}

	row := m.row
	switch {
	case row != nil && row.EmbeddingText == t.EmbeddingText:
		if m.moved {
			return p.write(ctx, t, row.ID, parentID, row.Embedding, &p.stats.Moved)
		}
		if domain.SameParent(row.ParentID, parentID) &&
			row.ContainerName == t.ContainerName && row.ContainerKind == t.ContainerKind {
			p.keep(t, row.ID, row.ParentID)
			p.stats.Unchanged++
			return nil
		}
		return p.write(ctx, t, row.ID, parentID, row.Embedding, &p.stats.Reparented)
	}

	p.stats.EmbedCalls++
	vec, err := p.reconciler.embedder.Embed(ctx, t.EmbeddingText)
	if err != nil {
		logger.Warn("Embedding %s %s at %s:%s failed: %v", t.Level, t.Kind, p.doc.Path, t.Span, err)
		return p.skip(ctx, t, m, parentID, true)
	}

	if row != nil {
		return p.write(ctx, t, row.ID, parentID, vec, &p.stats.Updated)
	}
	return p.write(ctx, t, 0, parentID, vec, &p.stats.Inserted)
}

// resolveParent returns the store identity of t's parent. resolved is
// false when the parent was skipped earlier in this pass.
func (p *pass) resolveParent(t *domain.TransientFragment) (parentID *int64, resolved bool) {
	if t.ParentLocalIndex == nil {
		return nil, true
	}
	if p.skipped[*t.ParentLocalIndex] {
		return nil, false
	}
	id, ok := p.ids[*t.ParentLocalIndex]
	if !ok {
		return nil, false
	}
	return &id, true
}

// write inserts (id == 0) or updates a row and counts it in counter.
func (p *pass) write(
	ctx context.Context,
	t *domain.TransientFragment,
	id int64,
	parentID *int64,
	vec []float32,
	counter *int,
) error {
	f := domain.FragmentFromTransient(p.doc.Path, p.doc.Fingerprint, *t)
	f.ParentID = parentID
	f.Embedding = vec

	if id == 0 {
		newID, err := p.reconciler.store.Insert(ctx, &f)
		if err != nil {
			return fmt.Errorf("inserting %s:%s: %w", p.doc.Path, t.Span, err)
		}
		id = newID
	} else if err := p.reconciler.store.Update(ctx, id, &f); err != nil {
		return fmt.Errorf("updating %s:%s: %w", p.doc.Path, t.Span, err)
	}

	p.keep(t, id, parentID)
	*counter++
	return nil
}

// skip records a fragment that could not be embedded. A matched row keeps
// its identity and old vector so its children still resolve. When its
// parent is known and has changed, the row is re-pointed so deleting
// obsolete rows cannot cascade into it.
func (p *pass) skip(
	ctx context.Context,
	t *domain.TransientFragment,
	m match,
	parentID *int64,
	resolved bool,
) error {
	p.stats.Skipped++
	p.stats.Incomplete = true
	p.skipped[t.LocalIndex] = true

	row := m.row
	if row == nil {
		return nil
	}
	if !resolved || m.moved || domain.SameParent(row.ParentID, parentID) {
		p.keep(t, row.ID, row.ParentID)
		return nil
	}

	f := *row
	f.ParentID = parentID
	if err := p.reconciler.store.Update(ctx, row.ID, &f); err != nil {
		return fmt.Errorf("re-pointing %s:%s: %w", p.doc.Path, row.Span, err)
	}
	p.keep(t, row.ID, parentID)
	p.stats.Reparented++
	return nil
}

// keep records the identity a fragment resolved to.
func (p *pass) keep(t *domain.TransientFragment, id int64, parentID *int64) {
	p.ids[t.LocalIndex] = id
	p.parents[id] = parentID
}

// deleteObsolete removes rows no fragment claimed. Obsolete rows that a
// surviving row still hangs from (only possible after a skip) are kept
// until a later pass, since deleting them would cascade.
func (p *pass) deleteObsolete(ctx context.Context, obsolete []domain.Fragment) error {
	if len(obsolete) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Fragment, len(obsolete))
	for i := range obsolete {
		byID[obsolete[i].ID] = &obsolete[i]
	}

	pinned := make(map[int64]bool)
	for _, parent := range p.parents {
		for parent != nil {
			row, ok := byID[*parent]
			if !ok || pinned[row.ID] {
				break
			}
			pinned[row.ID] = true
			parent = row.ParentID
		}
	}

	for i := range obsolete {
		row := &obsolete[i]
		if pinned[row.ID] {
			continue
		}
		p.stats.Deleted++
		// Descendants go with the cascade.
		if row.ParentID != nil {
			if parent, ok := byID[*row.ParentID]; ok && !pinned[parent.ID] {
				continue
			}
		}
		if err := p.reconciler.store.Delete(ctx, row.ID); err != nil {
			return fmt.Errorf("deleting %s:%s: %w", p.doc.Path, row.Span, err)
		}
	}

	if len(pinned) > 0 {
		logger.Debug("Kept %d obsolete fragments of %s until the next pass", len(pinned), p.doc.Path)
	}
	return nil
}

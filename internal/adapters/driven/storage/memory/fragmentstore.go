package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

// Ensure FragmentStore implements the interface.
var _ driven.FragmentStore = (*FragmentStore)(nil)

// FragmentStore is an in-memory implementation of driven.FragmentStore.
// It enforces the same constraints as the SQLite store: unique spans per
// document, parents inside the same document, cascading deletes and a
// fixed vector dimension once a model is recorded.
type FragmentStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*domain.Fragment
	spans  map[string]map[domain.Span]int64
	model  string
	dims   int
	now    func() time.Time
}

// NewFragmentStore creates an empty in-memory fragment store.
func NewFragmentStore() *FragmentStore {
	return &FragmentStore{
		rows:  make(map[int64]*domain.Fragment),
		spans: make(map[string]map[domain.Span]int64),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Insert persists a new fragment and returns its identity.
func (s *FragmentStore) Insert(ctx context.Context, f *domain.Fragment) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(f); err != nil {
		return 0, err
	}
	if _, taken := s.spans[f.DocumentPath][f.Span]; taken {
		return 0, fmt.Errorf("inserting fragment %s:%s: %w", f.DocumentPath, f.Span, domain.ErrAlreadyExists)
	}
	if err := s.checkParent(0, f); err != nil {
		return 0, err
	}

	s.nextID++
	row := clone(f)
	row.ID = s.nextID
	row.UpdatedAt = s.now()
	s.rows[row.ID] = row
	if s.spans[row.DocumentPath] == nil {
		s.spans[row.DocumentPath] = make(map[domain.Span]int64)
	}
	s.spans[row.DocumentPath][row.Span] = row.ID
	return row.ID, nil
}

// Update overwrites the mutable fields of an existing fragment. The
// document path of a row never changes.
func (s *FragmentStore) Update(ctx context.Context, id int64, f *domain.Fragment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(f); err != nil {
		return err
	}
	existing, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("fragment %d: %w", id, domain.ErrNotFound)
	}

	row := clone(f)
	row.ID = id
	row.DocumentPath = existing.DocumentPath
	if other, taken := s.spans[row.DocumentPath][row.Span]; taken && other != id {
		return fmt.Errorf("updating fragment %d: %w", id, domain.ErrAlreadyExists)
	}
	if err := s.checkParent(id, row); err != nil {
		return err
	}

	delete(s.spans[row.DocumentPath], existing.Span)
	s.spans[row.DocumentPath][row.Span] = id
	row.UpdatedAt = s.now()
	s.rows[id] = row
	return nil
}

// Get retrieves a fragment by identity.
func (s *FragmentStore) Get(_ context.Context, id int64) (*domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("fragment %d: %w", id, domain.ErrNotFound)
	}
	return clone(row), nil
}

// Delete removes a fragment and its descendants.
func (s *FragmentStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cascade(id)
	return nil
}

// DeleteByDocument removes every fragment of a document.
func (s *FragmentStore) DeleteByDocument(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range s.spans[path] {
		delete(s.rows, id)
		n++
	}
	delete(s.spans, path)
	return n, nil
}

// ListByDocument returns the fragments of one document in insertion order.
func (s *FragmentStore) ListByDocument(_ context.Context, path string) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(f *domain.Fragment) bool { return f.DocumentPath == path }), nil
}

// ListAll returns every fragment in insertion order.
func (s *FragmentStore) ListAll(_ context.Context) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(nil), nil
}

// ListDocumentPaths returns every document with stored fragments.
func (s *FragmentStore) ListDocumentPaths(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.spans))
	for p, spans := range s.spans {
		if len(spans) > 0 {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Rank scores every stored vector against query.
func (s *FragmentStore) Rank(ctx context.Context, query []float32, topK int) ([]domain.ScoredFragment, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.RankFragments(query, all, topK), nil
}

// Stats returns document and fragment counts.
func (s *FragmentStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := 0
	for _, spans := range s.spans {
		if len(spans) > 0 {
			docs++
		}
	}
	return domain.StoreStats{Documents: docs, Fragments: len(s.rows)}, nil
}

// EnsureModel records the embedding model, clearing fragments built with
// a different one.
func (s *FragmentStore) EnsureModel(_ context.Context, model string, dimensions int) (bool, error) {
	if model == "" || dimensions <= 0 {
		return false, fmt.Errorf("%w: model %q with %d dimensions", domain.ErrInvalidInput, model, dimensions)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == model && s.dims == dimensions {
		return false, nil
	}
	cleared := len(s.rows) > 0
	s.rows = make(map[int64]*domain.Fragment)
	s.spans = make(map[string]map[domain.Span]int64)
	s.model = model
	s.dims = dimensions
	return cleared, nil
}

// Close is a no-op; the data lives as long as the store value.
func (s *FragmentStore) Close() error {
	return nil
}

// check validates a fragment (caller must hold lock).
func (s *FragmentStore) check(f *domain.Fragment) error {
	if f == nil {
		return domain.ErrInvalidInput
	}
	if f.DocumentPath == "" || !f.Span.IsValid() || !f.Level.IsValid() {
		return fmt.Errorf("%w: fragment %s:%s", domain.ErrInvalidInput, f.DocumentPath, f.Span)
	}
	if len(f.Embedding) == 0 || (s.dims > 0 && len(f.Embedding) != s.dims) {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(f.Embedding), s.dims)
	}
	return nil
}

// checkParent verifies the parent exists in the same document and is not
// the fragment itself (caller must hold lock). id is 0 for inserts.
func (s *FragmentStore) checkParent(id int64, f *domain.Fragment) error {
	if f.ParentID == nil {
		return nil
	}
	parent, ok := s.rows[*f.ParentID]
	if !ok || parent.DocumentPath != f.DocumentPath || *f.ParentID == id {
		return fmt.Errorf("fragment %s:%s parent %d: %w",
			f.DocumentPath, f.Span, *f.ParentID, domain.ErrReferentialIntegrity)
	}
	return nil
}

// cascade deletes id and every descendant (caller must hold lock).
func (s *FragmentStore) cascade(id int64) {
	row, ok := s.rows[id]
	if !ok {
		return
	}
	delete(s.rows, id)
	delete(s.spans[row.DocumentPath], row.Span)
	if len(s.spans[row.DocumentPath]) == 0 {
		delete(s.spans, row.DocumentPath)
	}
	for childID, child := range s.rows {
		if child.ParentID != nil && *child.ParentID == id {
			s.cascade(childID)
		}
	}
}

// sorted returns copies of matching rows ordered by id (caller must hold lock).
func (s *FragmentStore) sorted(match func(*domain.Fragment) bool) []domain.Fragment {
	out := make([]domain.Fragment, 0, len(s.rows))
	for _, row := range s.rows {
		if match == nil || match(row) {
			out = append(out, *clone(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// clone copies a fragment so callers never alias stored state.
func clone(f *domain.Fragment) *domain.Fragment {
	c := *f
	if f.ParentID != nil {
		p := *f.ParentID
		c.ParentID = &p
	}
	if f.Embedding != nil {
		c.Embedding = append([]float32(nil), f.Embedding...)
	}
	return &c
}

package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// fakeEmbedder returns a deterministic vector per text and fails for any
// text containing one of failOn.
type fakeEmbedder struct {
	mu     sync.Mutex
	dims   int
	failOn []string
	calls  []string
	err    error
}

func newFakeEmbedder(failOn ...string) *fakeEmbedder {
	return &fakeEmbedder{dims: 4, failOn: failOn}
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if e.err != nil {
		return nil, e.err
	}
	for _, s := range e.failOn {
		if strings.Contains(text, s) {
			return nil, errors.New("model overloaded")
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	vec := make([]float32, e.dims)
	for i := range vec {
		vec[i] = float32((sum>>(uint(i)*8))&0xff) + 1
	}
	return vec, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int              { return e.dims }
func (e *fakeEmbedder) ModelName() string            { return "fake" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// recordingStore wraps a FragmentStore and counts mutations.
type recordingStore struct {
	driven.FragmentStore

	mu        sync.Mutex
	inserts   int
	updates   int
	deletes   int
	docDelete []string
	insertErr error
	listErr   error

	// docDeleteErrs fail DeleteByDocument calls in order, one error each.
	docDeleteErrs []error
}

func newRecordingStore(inner driven.FragmentStore) *recordingStore {
	return &recordingStore{FragmentStore: inner}
}

func (s *recordingStore) Insert(ctx context.Context, f *domain.Fragment) (int64, error) {
	s.mu.Lock()
	s.inserts++
	err := s.insertErr
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return s.FragmentStore.Insert(ctx, f)
}

func (s *recordingStore) Update(ctx context.Context, id int64, f *domain.Fragment) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.FragmentStore.Update(ctx, id, f)
}

func (s *recordingStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.FragmentStore.Delete(ctx, id)
}

func (s *recordingStore) DeleteByDocument(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	s.docDelete = append(s.docDelete, path)
	var err error
	if len(s.docDeleteErrs) > 0 {
		err, s.docDeleteErrs = s.docDeleteErrs[0], s.docDeleteErrs[1:]
	}
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return s.FragmentStore.DeleteByDocument(ctx, path)
}

func (s *recordingStore) ListByDocument(ctx context.Context, path string) ([]domain.Fragment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.FragmentStore.ListByDocument(ctx, path)
}

func (s *recordingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts + s.updates + s.deletes
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts, s.updates, s.deletes = 0, 0, 0
	s.docDelete = nil
}

// fakeTracker serves scripted scan results.
type fakeTracker struct {
	mu      sync.Mutex
	results []domain.ScanResult
	err     error
	known   map[string]string
	forgot  []string
	scanned [][]string
}

func newFakeTracker(results ...domain.ScanResult) *fakeTracker {
	return &fakeTracker{results: results, known: map[string]string{}}
}

func (t *fakeTracker) Scan(_ context.Context, roots []string) (domain.ScanResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanned = append(t.scanned, roots)
	if t.err != nil {
		return domain.ScanResult{}, t.err
	}
	if len(t.results) == 0 {
		return domain.ScanResult{}, nil
	}
	r := t.results[0]
	t.results = t.results[1:]
	for _, d := range r.Changed {
		t.known[d.Path] = d.Fingerprint
	}
	for _, p := range r.Removed {
		delete(t.known, p)
	}
	return r, nil
}

func (t *fakeTracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forgot = append(t.forgot, path)
	delete(t.known, path)
}

func (t *fakeTracker) Known() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.known))
	for k, v := range t.known {
		out[k] = v
	}
	return out
}

// Ensure mocks implement interfaces
var _ driven.EmbeddingService = (*fakeEmbedder)(nil)
var _ driven.FragmentStore = (*recordingStore)(nil)
var _ driven.FingerprintTracker = (*fakeTracker)(nil)

package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/core/ports/driving"
	"github.com/custodia-labs/synindex/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService runs reconciliation over every document under the
// configured roots. Cycles are serialised: one document at a time.
type IndexService struct {
	reconciler driving.Reconciler
	tracker    driven.FingerprintTracker
	store      driven.FragmentStore
	roots      []string
	model      string

	// cycle serialises Bootstrap and Poll.
	cycle sync.Mutex

	// pending holds removed documents whose fragments could not be
	// deleted yet. Guarded by cycle.
	pending map[string]struct{}

	// Status tracking
	mu         sync.RWMutex
	running    bool
	processed  int
	errorCount int
	lastRun    time.Time
}

// NewIndexService creates an index service over roots. model is reported
// by Status.
func NewIndexService(
	reconciler driving.Reconciler,
	tracker driven.FingerprintTracker,
	store driven.FragmentStore,
	roots []string,
	model string,
) *IndexService {
	return &IndexService{
		reconciler: reconciler,
		tracker:    tracker,
		store:      store,
		roots:      roots,
		model:      model,
		pending:    make(map[string]struct{}),
	}
}

// Bootstrap reconciles every discovered document and deletes the fragments
// of stored documents that are no longer on disk.
func (s *IndexService) Bootstrap(ctx context.Context) (domain.IndexRun, error) {
	return s.runCycle(ctx, "index.bootstrap", true)
}

// Poll reconciles documents that changed since the previous scan and
// deletes the fragments of removed ones.
func (s *IndexService) Poll(ctx context.Context) (domain.IndexRun, error) {
	return s.runCycle(ctx, "index.poll", false)
}

func (s *IndexService) runCycle(ctx context.Context, name string, prune bool) (domain.IndexRun, error) {
	if s.reconciler == nil || s.tracker == nil || s.store == nil {
		return domain.IndexRun{}, domain.ErrServiceNotReady
	}

	s.cycle.Lock()
	defer s.cycle.Unlock()
	s.setRunning(true)
	defer s.setRunning(false)

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.StringSlice("roots", s.roots)))
	run, err := s.index(ctx, prune)
	span.SetAttributes(
		attribute.Int("documents", run.Documents),
		attribute.Int("removed", run.Removed),
		attribute.Int("failed", len(run.Failed)),
		attribute.Int("writes", run.Stats.Writes()),
	)
	endSpan(span, err)

	s.mu.Lock()
	s.processed += run.Documents
	s.errorCount += len(run.Failed)
	s.lastRun = time.Now()
	s.mu.Unlock()

	return run, err
}

func (s *IndexService) index(ctx context.Context, prune bool) (domain.IndexRun, error) {
	var run domain.IndexRun

	result, err := s.tracker.Scan(ctx, s.roots)
	if err != nil {
		return run, fmt.Errorf("scanning roots: %w", err)
	}
	// Snapshot before any Forget so a failed document is not pruned.
	onDisk := s.tracker.Known()

	for _, doc := range result.Changed {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		if err := s.reconcileDocument(ctx, doc, &run); err != nil {
			return run, err
		}
	}

	for _, path := range s.removals(result.Removed, onDisk) {
		if err := s.removeDocument(ctx, path, &run); err != nil {
			return run, err
		}
	}

	if prune {
		if err := s.prune(ctx, onDisk, &run); err != nil {
			return run, err
		}
	}

	if run.Documents > 0 || run.Removed > 0 {
		logger.Info("Indexed %d documents, removed %d: %s", run.Documents, run.Removed, run.Stats)
	}
	return run, nil
}

// reconcileDocument runs one document pass. Per-document failures are
// recorded on run; only a service that is not ready stops the cycle.
func (s *IndexService) reconcileDocument(ctx context.Context, doc domain.Document, run *domain.IndexRun) error {
	stats, err := s.reconciler.Reconcile(ctx, doc)
	run.Stats.Add(stats)

	switch {
	case err == nil:
		run.Documents++
		if stats.Incomplete {
			logger.Warn("Indexing %s incomplete: %d fragments skipped", doc.Path, stats.Skipped)
			s.tracker.Forget(doc.Path)
		}
		return nil
	case errors.Is(err, domain.ErrServiceNotReady):
		return err
	case errors.Is(err, domain.ErrUnparsable):
		// Stored fragments stay as they were; the document is retried
		// once its content changes.
		logger.Warn("Skipping %s: %v", doc.Path, err)
		run.Failed = append(run.Failed, doc.Path)
		return nil
	case ctx.Err() != nil:
		s.tracker.Forget(doc.Path)
		return ctx.Err()
	default:
		logger.Error("Indexing %s failed: %v", doc.Path, err)
		run.Failed = append(run.Failed, doc.Path)
		s.tracker.Forget(doc.Path)
		return nil
	}
}

// removals merges this scan's removed paths with earlier failed
// removals. A pending path that is back on disk is dropped.
func (s *IndexService) removals(removed []string, onDisk map[string]string) []string {
	for _, path := range removed {
		s.pending[path] = struct{}{}
	}
	for path := range s.pending {
		if _, ok := onDisk[path]; ok {
			delete(s.pending, path)
		}
	}
	return slices.Sorted(maps.Keys(s.pending))
}

// removeDocument deletes the fragments of a document that is gone. A
// store failure is recorded on run and the path stays pending for the
// next cycle; only cancellation stops the cycle.
func (s *IndexService) removeDocument(ctx context.Context, path string, run *domain.IndexRun) error {
	n, err := s.store.DeleteByDocument(ctx, path)
	if err != nil {
		s.pending[path] = struct{}{}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("Removing %s failed: %v", path, err)
		run.Failed = append(run.Failed, path)
		return nil
	}
	delete(s.pending, path)
	run.Removed++
	run.Stats.Deleted += n
	logger.Debug("Removed %s (%d fragments)", path, n)
	return nil
}

// prune removes stored documents the scan did not find. Paths still
// pending already failed this cycle and are left for the next one.
func (s *IndexService) prune(ctx context.Context, onDisk map[string]string, run *domain.IndexRun) error {
	paths, err := s.store.ListDocumentPaths(ctx)
	if err != nil {
		return fmt.Errorf("listing stored documents: %w", err)
	}
	for _, path := range paths {
		if _, ok := onDisk[path]; ok {
			continue
		}
		if _, ok := s.pending[path]; ok {
			continue
		}
		if err := s.removeDocument(ctx, path, run); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the current index state.
func (s *IndexService) Status(ctx context.Context) (*driving.IndexStatus, error) {
	if s.store == nil || s.tracker == nil {
		return nil, domain.ErrServiceNotReady
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading store stats: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return &driving.IndexStatus{
		Running:            s.running,
		Model:              s.model,
		Documents:          stats.Documents,
		Fragments:          stats.Fragments,
		Tracked:            len(s.tracker.Known()),
		DocumentsProcessed: s.processed,
		ErrorCount:         s.errorCount,
		LastRun:            s.lastRun,
	}, nil
}

func (s *IndexService) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

// Package bootstrap assembles the stores, embedding service and core
// services from settings and releases them again on Close.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/synindex/internal/adapters/driven/ai"
	"github.com/custodia-labs/synindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/synindex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/synindex/internal/chunker"
	"github.com/custodia-labs/synindex/internal/connectors/filesystem"
	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/core/services"
	"github.com/custodia-labs/synindex/internal/logger"
	"github.com/custodia-labs/synindex/internal/tracing"
)

// Options tune how a Runtime is opened.
type Options struct {
	// Offline skips the embedding service. Search and reconciliation
	// then report domain.ErrServiceNotReady; status still works.
	Offline bool

	// TraceWriter receives exported spans when telemetry is enabled.
	TraceWriter io.Writer

	// Version is recorded on the trace resource.
	Version string

	// Scheduler overrides the scheduler configuration. Nil derives it
	// from the poll interval.
	Scheduler *domain.SchedulerConfig
}

// Runtime holds every long-lived handle of one process.
type Runtime struct {
	Settings       domain.Settings
	Store          driven.FragmentStore
	SchedulerStore driven.SchedulerStore
	Embedder       driven.EmbeddingService
	Tracker        *filesystem.Tracker
	Reconciler     *services.Reconciler
	Index          *services.IndexService
	Search         *services.SearchService
	Scheduler      *services.Scheduler

	shutdown tracing.Shutdown
	closed   bool
}

// Open builds a Runtime. A store that cannot be opened wraps
// domain.ErrStoreUnavailable; an unreachable embedding model wraps
// domain.ErrEmbeddingUnavailable. Either way nothing is left open.
func Open(ctx context.Context, settings domain.Settings, opts Options) (*Runtime, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var traceWriter io.Writer
	if settings.Telemetry.Stdout {
		traceWriter = opts.TraceWriter
	}
	shutdown, err := tracing.Setup(traceWriter, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	rt := &Runtime{Settings: settings, shutdown: shutdown}

	if err := rt.openStore(); err != nil {
		rt.Close()
		return nil, err
	}

	if !opts.Offline {
		if err := rt.openEmbedder(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.wire(opts)
	return rt, nil
}

func (rt *Runtime) openStore() error {
	switch rt.Settings.Store.Driver {
	case domain.StoreDriverMemory:
		rt.Store = memory.NewFragmentStore()
		rt.SchedulerStore = memory.NewSchedulerStore()
		logger.Debug("using in-memory store")
	case domain.StoreDriverSQLite:
		store, err := sqlite.NewStore(rt.Settings.Store.Path)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		rt.Store = store.FragmentStore()
		rt.SchedulerStore = store.SchedulerStore()
		logger.Debug("using sqlite store at %s", store.Path())
	default:
		return fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidInput, rt.Settings.Store.Driver)
	}
	return nil
}

func (rt *Runtime) openEmbedder(ctx context.Context) error {
	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &rt.Settings.Embedding)
	if err != nil {
		return err
	}
	rt.Embedder = embedder

	cleared, err := rt.Store.EnsureModel(ctx, embedder.ModelName(), embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("%w: recording embedding model: %w", domain.ErrStoreUnavailable, err)
	}
	if cleared {
		logger.Warn("embedding model changed to %s; stored fragments cleared and will be rebuilt",
			embedder.ModelName())
	}
	logger.Debug("embedding with %s (%d dimensions)", embedder.ModelName(), embedder.Dimensions())
	return nil
}

func (rt *Runtime) wire(opts Options) {
	s := rt.Settings

	rt.Tracker = filesystem.New(filesystem.WithExtensions(s.Index.Extensions...))

	chunk := chunker.New(
		chunker.WithTokenBudget(s.Chunker.TokenBudget),
		chunker.WithMinTokenLength(s.Chunker.MinTokenLength),
	)
	rt.Reconciler = services.NewReconciler(chunk, rt.Store, rt.Embedder)
	model := s.Embedding.Model
	if rt.Embedder != nil {
		model = rt.Embedder.ModelName()
	}
	rt.Index = services.NewIndexService(rt.Reconciler, rt.Tracker, rt.Store, s.Index.Roots, model)
	rt.Search = services.NewSearchService(rt.Store, rt.Embedder, s.Search.DefaultLimit, s.Search.CacheSize)

	cfg := domain.DefaultSchedulerConfig(s.Index.PollInterval)
	if opts.Scheduler != nil {
		cfg = *opts.Scheduler
	}
	rt.Scheduler = services.NewScheduler(cfg, rt.SchedulerStore, rt.Index)
}

// Close stops the scheduler and releases the embedding service, store
// and tracer provider. Safe to call more than once.
func (rt *Runtime) Close() error {
	if rt.closed {
		return nil
	}
	rt.closed = true

	var errs []error
	if rt.Scheduler != nil {
		errs = append(errs, rt.Scheduler.Stop())
	}
	if rt.Embedder != nil {
		errs = append(errs, rt.Embedder.Close())
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	if rt.shutdown != nil {
		errs = append(errs, rt.shutdown(context.Background()))
	}
	return errors.Join(errs...)
}

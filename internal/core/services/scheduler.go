package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/core/ports/driving"
	"github.com/custodia-labs/synindex/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs the bootstrap pass and then polls on a fixed interval.
// Cycles run one at a time in the goroutine that called Start.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	index  driving.IndexService

	// OnCycle, if set, is called after every cycle with its run summary.
	OnCycle func(taskID string, run domain.IndexRun, err error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	index driving.IndexService,
) *Scheduler {
	return &Scheduler{
		config: config,
		store:  store,
		index:  index,
	}
}

// Start runs the bootstrap pass and polls until ctx is cancelled or Stop
// is called. Cancellation is honoured only between cycles.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	if s.index == nil {
		s.mu.Unlock()
		return domain.ErrServiceNotReady
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	if err := s.runTask(ctx, domain.TaskIDIndexBootstrap); errors.Is(err, domain.ErrServiceNotReady) {
		s.markStopped()
		return err
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler, waiting for a cycle in
// progress to finish.
func (s *Scheduler) Stop() error {
	if s.markStopped() {
		s.wg.Wait()
	}
	return nil
}

func (s *Scheduler) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	close(s.stopCh)
	return true
}

// pollInterval returns the poll interval, or 0 when polling is disabled.
func (s *Scheduler) pollInterval() time.Duration {
	if !s.config.Enabled {
		return 0
	}
	cfg := s.config.GetTaskConfig(domain.TaskIDIndexPoll)
	if !cfg.Enabled {
		return 0
	}
	if cfg.Interval <= 0 {
		return domain.DefaultPollInterval
	}
	return cfg.Interval
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	bootstrap := domain.TaskConfig{Enabled: true}
	if err := s.ensureTask(ctx, domain.TaskIDIndexBootstrap, "Index Bootstrap", bootstrap); err != nil {
		return err
	}
	poll := domain.TaskConfig{Enabled: s.pollInterval() > 0, Interval: s.pollInterval()}
	return s.ensureTask(ctx, domain.TaskIDIndexPoll, "Index Poll", poll)
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the poll loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	interval := s.pollInterval()
	if interval == 0 {
		logger.Info("Polling disabled; waiting for shutdown")
		select {
		case <-ctx.Done():
		case <-stopCh:
		}
		s.markStopped()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return nil
		case <-stopCh:
			return nil
		case <-ticker.C:
			_ = s.runTask(ctx, domain.TaskIDIndexPoll)
		}
	}
}

// runTask executes one cycle and records its result. The cycle is
// detached from ctx cancellation so it always completes.
func (s *Scheduler) runTask(ctx context.Context, taskID string) error {
	cycleCtx := context.WithoutCancel(ctx)
	result := &domain.TaskResult{
		RunID:     uuid.NewString(),
		TaskID:    taskID,
		StartedAt: time.Now(),
	}

	var (
		run domain.IndexRun
		err error
	)
	switch taskID {
	case domain.TaskIDIndexBootstrap:
		run, err = s.index.Bootstrap(cycleCtx)
	case domain.TaskIDIndexPoll:
		run, err = s.index.Poll(cycleCtx)
	default:
		logger.Warn("scheduler: unknown task ID: %s", taskID)
		return fmt.Errorf("%w: unknown task %q", domain.ErrInvalidInput, taskID)
	}

	result.EndedAt = time.Now()
	result.ItemsProcessed = run.Documents + run.Removed
	switch {
	case err != nil:
		result.Error = err.Error()
		logger.Error("%s failed: %v", taskID, err)
	case len(run.Failed) > 0:
		result.Error = "failed: " + strings.Join(run.Failed, ", ")
	default:
		result.Success = true
	}

	s.record(cycleCtx, result)
	if s.OnCycle != nil {
		s.OnCycle(taskID, run, err)
	}
	return err
}

// record persists the cycle outcome. Failures are logged, never fatal.
func (s *Scheduler) record(ctx context.Context, result *domain.TaskResult) {
	if s.store == nil {
		return
	}

	task, err := s.store.GetTask(ctx, result.TaskID)
	if err != nil {
		logger.Warn("scheduler: failed to load task %s: %v", result.TaskID, err)
	}
	if task != nil {
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)
		task.LastError = result.Error
		if result.Success {
			task.LastSuccess = result.EndedAt
		}
		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
	}

	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", result.TaskID, recordErr)
	}

	if s.config.HistoryLimit > 0 {
		if pruneErr := s.store.PruneHistory(ctx, s.config.HistoryLimit); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

// schedulerStore keeps the poll schedule and the run history in the
// same database as the fragments, so a restarted watcher resumes where
// it stopped.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const scheduleColumns = `task_id, name, interval_ms, last_run, next_run, last_success, last_error, enabled`

func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM poll_schedule WHERE task_id = ?`, taskID)
	task, err := scanSchedule(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schedule of %s: %w", taskID, err)
	}
	return task, nil
}

func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM poll_schedule ORDER BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("listing schedule: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask
	for rows.Next() {
		task, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// SaveTask upserts the schedule row for task.ID.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO poll_schedule (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			name = excluded.name,
			interval_ms = excluded.interval_ms,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_success = excluded.last_success,
			last_error = excluded.last_error,
			enabled = excluded.enabled
	`, task.ID, task.Name, task.Interval.Milliseconds(),
		toMillis(task.LastRun), toMillis(task.NextRun), toMillis(task.LastSuccess),
		task.LastError, task.Enabled)
	if err != nil {
		return fmt.Errorf("saving schedule of %s: %w", task.ID, err)
	}
	return nil
}

func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM poll_schedule WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("deleting schedule of %s: %w", taskID, err)
	}
	return nil
}

// RecordResult appends one cycle to the run history.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO poll_runs (run_id, task_id, started_ms, ended_ms, ok, error, documents)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.TaskID, result.StartedAt.UnixMilli(), result.EndedAt.UnixMilli(),
		result.Success, result.Error, result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("recording run of %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns up to limit runs of taskID, newest first.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, task_id, started_ms, ended_ms, ok, error, documents
		FROM poll_runs
		WHERE task_id = ?
		ORDER BY started_ms DESC, seq DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading runs of %s: %w", taskID, err)
	}
	defer rows.Close()

	history := make([]domain.TaskResult, 0, limit)
	for rows.Next() {
		var (
			r              domain.TaskResult
			started, ended int64
		)
		if err := rows.Scan(&r.RunID, &r.TaskID, &started, &ended, &r.Success, &r.Error, &r.ItemsProcessed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.EndedAt = time.UnixMilli(ended).UTC()
		history = append(history, r)
	}
	return history, rows.Err()
}

// PruneHistory keeps the newest keep runs of every task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	if keep < 0 {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM poll_runs
		WHERE seq IN (
			SELECT seq FROM (
				SELECT seq, ROW_NUMBER() OVER (
					PARTITION BY task_id ORDER BY started_ms DESC, seq DESC
				) AS pos
				FROM poll_runs
			) WHERE pos > ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning run history: %w", err)
	}
	return nil
}

func scanSchedule(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                          domain.ScheduledTask
		intervalMS                    int64
		lastRun, nextRun, lastSuccess sql.NullInt64
	)
	if err := row.Scan(&task.ID, &task.Name, &intervalMS,
		&lastRun, &nextRun, &lastSuccess, &task.LastError, &task.Enabled); err != nil {
		return nil, err
	}
	task.Interval = time.Duration(intervalMS) * time.Millisecond
	task.LastRun = fromMillis(lastRun)
	task.NextRun = fromMillis(nextRun)
	task.LastSuccess = fromMillis(lastSuccess)
	return &task, nil
}

// toMillis stores the zero time as NULL.
func toMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64).UTC()
}

package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// RunID uniquely identifies this execution.
	RunID string

	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is the number of documents reconciled or removed.
	ItemsProcessed int
}

// Duration returns how long the run took.
func (r TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// HistoryLimit is how many results are kept per task.
	HistoryLimit int

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig returns a config polling at the given interval.
// A non-positive interval falls back to DefaultPollInterval.
func DefaultSchedulerConfig(pollInterval time.Duration) SchedulerConfig {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return SchedulerConfig{
		Enabled:      true,
		HistoryLimit: 100,
		TaskConfigs: map[string]TaskConfig{
			TaskIDIndexPoll: {
				Enabled:  true,
				Interval: pollInterval,
			},
		},
	}
}

// Task IDs for built-in tasks.
const (
	TaskIDIndexBootstrap = "index-bootstrap"
	TaskIDIndexPoll      = "index-poll"
)

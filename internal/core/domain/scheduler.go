package domain

import "time"

// ScheduledTask represents a recurring background task. The scheduler
// creates one task per configured source.
type ScheduledTask struct {
	// ID is the unique identifier for the task ("sync:" + source ID).
	ID string

	// Name is a human-readable name for the task.
	Name string

	// SourceID is the source this task syncs.
	SourceID string

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

// SyncTaskID returns the task ID for a source's sync task.
func SyncTaskID(sourceID string) string {
	return "sync:" + sourceID
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
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

	// ItemsProcessed counts items ingested by this run.
	ItemsProcessed int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// Interval is how often each source is synced.
	Interval time.Duration

	// HistoryKeep is how many task results to retain per task.
	HistoryKeep int
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:     true,
		Interval:    1 * time.Hour,
		HistoryKeep: 100,
	}
}

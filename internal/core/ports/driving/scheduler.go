package driving

import "context"

// SchedulerControl starts and stops the background sync scheduler.
type SchedulerControl interface {
	// Start begins the scheduler loop, blocking until Stop is called or
	// the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down, waiting for running tasks.
	Stop() error
}

package driving

import "context"

// Scheduler runs the bootstrap pass and then polls on a fixed interval.
type Scheduler interface {
	// Start runs the bootstrap pass and begins polling.
	// Blocks until context is cancelled or Stop is called. A cycle in
	// progress always finishes before Start returns.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler.
	Stop() error
}

package history

import "context"

// Store persists history events. Swap with concrete storage without
// touching the worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	// List returns the most recent events, newest first.
	List(ctx context.Context, limit int) ([]Event, error)
}

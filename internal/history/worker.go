package history

import (
	"context"
	"log/slog"
	"time"
)

// Worker consumes history events from a channel and persists them, keeping
// store latency out of the batch pipeline's way.
type Worker struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

func NewWorker(store Store, logger *slog.Logger, buffer int) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Worker{store: store, inbox: make(chan Event, buffer), logger: logger}
}

// Record enqueues an event without blocking the caller. When the inbox is
// full the event is dropped with a warning; history is an operator aid, not
// a ledger worth stalling judgments for.
func (w *Worker) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case w.inbox <- event:
	default:
		w.logger.Warn("history inbox full, dropping event",
			"document", event.DocumentName, "action", event.Action)
	}
}

// Run drains the inbox until ctx is cancelled. Store failures are logged
// and skipped so one bad write never stops the stream.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("persist history event failed", "error", err)
			}
		}
	}
}

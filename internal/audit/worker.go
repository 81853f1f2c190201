package audit

import (
	"context"

	"campus/pkg/requestcontext"
)

// Worker consumes audit events from a channel and persists them, letting
// services emit without waiting on the store.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// ChannelEmitter queues events for a Worker. Events without a timestamp are
// stamped with the request time before they are queued.
type ChannelEmitter chan Event

func (c ChannelEmitter) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	select {
	case c <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

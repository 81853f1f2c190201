package events

import (
	"context"
	"log/slog"
)

// Worker drains an inbox into a Handler. Handler failures are logged and the
// envelope is skipped so one bad consumer cannot stall the command path.
type Worker struct {
	inbox   <-chan Envelope
	handler Handler
	logger  *slog.Logger
}

func NewWorker(inbox <-chan Envelope, handler Handler, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{inbox: inbox, handler: handler, logger: logger}
}

// Run processes envelopes until ctx is done or the inbox is closed. On
// cancellation, envelopes already buffered are drained first.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case env, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.handle(ctx, env)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case env, ok := <-w.inbox:
			if !ok {
				return
			}
			w.handle(ctx, env)
		default:
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, env Envelope) {
	if err := w.handler.Handle(ctx, env); err != nil {
		w.logger.ErrorContext(ctx, "effect handler failed",
			"effect", env.Name,
			"aggregate_id", env.AggregateID,
			"envelope_id", env.ID,
			"error", err,
		)
	}
}

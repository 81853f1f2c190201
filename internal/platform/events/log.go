package events

import (
	"context"
	"log/slog"
)

// LogHandler writes each envelope as a structured log line. It is the default
// consumer when no broker is configured.
func LogHandler(logger *slog.Logger) Handler {
	return HandlerFunc(func(ctx context.Context, env Envelope) error {
		logger.InfoContext(ctx, env.Name,
			"aggregate_type", env.AggregateType,
			"aggregate_id", env.AggregateID,
			"envelope_id", env.ID,
			"request_id", env.RequestID,
			"occurred_at", env.OccurredAt,
			"log_type", "effect",
		)
		return nil
	})
}

package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	txcontext "campus/pkg/platform/tx"
)

// PostgresStore appends audit events to the audit_events table. Appends join
// the caller's transaction when the context carries one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_events (
			id, occurred_at, action, aggregate_type, aggregate_id,
			actor_id, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.New(),
		event.Timestamp,
		event.Action,
		event.AggregateType,
		event.AggregateID,
		event.ActorID,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByAggregate returns the aggregate's events, oldest first. Events with
// the same timestamp keep their append order.
func (s *PostgresStore) ListByAggregate(ctx context.Context, aggregateID string) ([]Event, error) {
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT occurred_at, action, aggregate_type, aggregate_id, actor_id, reason, request_id
		FROM audit_events
		WHERE aggregate_id = $1
		ORDER BY occurred_at, seq
	`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.Action, &e.AggregateType, &e.AggregateID, &e.ActorID, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

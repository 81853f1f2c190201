package audit

import (
	"context"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
	now   func() time.Time
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = p.now()
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context, aggregateID string) ([]Event, error) {
	return p.store.ListByAggregate(ctx, aggregateID)
}

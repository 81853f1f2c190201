// Package events carries aggregate effects out of the command path once the
// owning transaction has committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the transport shape of one effect.
type Envelope struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and stamps a fresh envelope id.
func NewEnvelope(name, aggregateType, aggregateID string, occurredAt time.Time, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Envelope{
		ID:            uuid.NewString(),
		Name:          name,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt,
		Payload:       body,
	}, nil
}

// Publisher delivers envelopes. Implementations preserve the order of
// envelopes within one call.
type Publisher interface {
	Publish(ctx context.Context, envelopes ...Envelope) error
}

// Handler consumes delivered envelopes.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, envelope Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, envelope Envelope) error {
	return f(ctx, envelope)
}

// Discard drops every envelope.
type Discard struct{}

func (Discard) Publish(context.Context, ...Envelope) error { return nil }

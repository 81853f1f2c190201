package audit

import (
	"context"
	"sync"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAggregate(ctx context.Context, aggregateID string) ([]Event, error)
}

// InMemoryStore keeps audit events in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.AggregateID] = append(s.events[event.AggregateID], event)
	return nil
}

func (s *InMemoryStore) ListByAggregate(_ context.Context, aggregateID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[aggregateID]...), nil
}

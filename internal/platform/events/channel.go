package events

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to a closed ChannelPublisher.
var ErrClosed = errors.New("events: publisher closed")

// ChannelPublisher hands envelopes to an in-process Worker over a buffered
// channel. Publish blocks while the buffer is full.
type ChannelPublisher struct {
	mu     sync.RWMutex
	ch     chan Envelope
	closed bool
}

// NewChannelPublisher creates a publisher with the given buffer size.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{ch: make(chan Envelope, buffer)}
}

func (p *ChannelPublisher) Publish(ctx context.Context, envelopes ...Envelope) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	for _, env := range envelopes {
		select {
		case p.ch <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Inbox is the receiving side for a Worker.
func (p *ChannelPublisher) Inbox() <-chan Envelope {
	return p.ch
}

// Close stops accepting envelopes. Buffered envelopes remain readable.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
	env, err := NewEnvelope("schedule.deleted", "schedule", "abc", at, map[string]string{"schedule_id": "abc"})
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, at, env.OccurredAt)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "abc", payload["schedule_id"])
}

func TestNewEnvelopeRejectsUnmarshalablePayload(t *testing.T) {
	_, err := NewEnvelope("x", "y", "z", time.Now(), make(chan int))
	assert.Error(t, err)
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
	fail string
}

func (h *recordingHandler) Handle(_ context.Context, env Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, env.Name)
	if env.Name == h.fail {
		return errors.New("boom")
	}
	return nil
}

func (h *recordingHandler) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func TestWorkerDeliversInOrderAndSurvivesHandlerErrors(t *testing.T) {
	pub := NewChannelPublisher(8)
	handler := &recordingHandler{fail: "b"}
	worker := NewWorker(pub.Inbox(), handler, nil)

	require.NoError(t, pub.Publish(context.Background(),
		Envelope{Name: "a"}, Envelope{Name: "b"}, Envelope{Name: "c"},
	))
	require.NoError(t, pub.Close())

	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, handler.names())
}

func TestWorkerDrainsOnCancel(t *testing.T) {
	pub := NewChannelPublisher(8)
	handler := &recordingHandler{}
	worker := NewWorker(pub.Inbox(), handler, nil)

	require.NoError(t, pub.Publish(context.Background(), Envelope{Name: "a"}, Envelope{Name: "b"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ElementsMatch(t, []string{"a", "b"}, handler.names())
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewChannelPublisher(1)
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.ErrorIs(t, pub.Publish(context.Background(), Envelope{Name: "a"}), ErrClosed)
}

func TestPublishHonoursContextWhenFull(t *testing.T) {
	pub := NewChannelPublisher(1)
	require.NoError(t, pub.Publish(context.Background(), Envelope{Name: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pub.Publish(ctx, Envelope{Name: "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

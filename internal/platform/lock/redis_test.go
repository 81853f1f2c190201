package lock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHook answers commands in process: SET NX always succeeds and the
// release script fails with releaseErr when set.
type scriptedHook struct {
	releaseErr error
	released   int
}

func (h *scriptedHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (h *scriptedHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch c := cmd.(type) {
		case *redis.BoolCmd:
			c.SetVal(true)
			return nil
		case *redis.Cmd:
			if strings.HasPrefix(strings.ToLower(c.Name()), "eval") {
				h.released++
				if h.releaseErr != nil {
					c.SetErr(h.releaseErr)
					return h.releaseErr
				}
				c.SetVal(int64(1))
				return nil
			}
		}
		err := errors.New("unexpected command " + cmd.Name())
		cmd.SetErr(err)
		return err
	}
}

func (h *scriptedHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newScriptedLocker(t *testing.T, hook *scriptedHook, logs *bytes.Buffer) *Redis {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(logs, nil))
	return NewRedis(client, time.Second, WithLogger(logger))
}

func TestRedisReleaseFailureAfterCommitIsLogged(t *testing.T) {
	hook := &scriptedHook{releaseErr: errors.New("connection reset")}
	var logs bytes.Buffer
	l := newScriptedLocker(t, hook, &logs)

	committed := false
	err := l.Run(context.Background(), "schedule:x", func(ctx context.Context) error {
		committed = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, 1, hook.released)
	assert.Contains(t, logs.String(), "lock release failed")
	assert.Contains(t, logs.String(), "schedule:x")
}

func TestRedisReleaseFailureJoinsSectionError(t *testing.T) {
	hook := &scriptedHook{releaseErr: errors.New("connection reset")}
	var logs bytes.Buffer
	l := newScriptedLocker(t, hook, &logs)
	sectionErr := errors.New("duplicate course")

	err := l.Run(context.Background(), "registration:x", func(ctx context.Context) error {
		return sectionErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sectionErr)
	assert.Contains(t, err.Error(), "release lock registration:x")
	assert.Empty(t, logs.String())
}

func TestRedisReleasesAfterSection(t *testing.T) {
	hook := &scriptedHook{}
	var logs bytes.Buffer
	l := newScriptedLocker(t, hook, &logs)

	err := l.Run(context.Background(), "schedule:y", func(ctx context.Context) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, 1, hook.released)
	assert.Empty(t, logs.String())
}

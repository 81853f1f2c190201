package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "campus/pkg/domain-errors"
)

func TestShardedSerializesSameKey(t *testing.T) {
	l := NewSharded(time.Second)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Run(context.Background(), "schedule:1", func(ctx context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestShardedPropagatesErrors(t *testing.T) {
	l := NewSharded(0)
	want := dErrors.New(dErrors.CodeInvalidState, "nope")
	err := l.Run(context.Background(), "k", func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestShardedRejectsCancelledContext(t *testing.T) {
	l := NewSharded(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.Run(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.False(t, called)
}

func TestShardedAppliesDefaultDeadline(t *testing.T) {
	l := NewSharded(50 * time.Millisecond)
	err := l.Run(context.Background(), "k", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

// Package lock serializes load-check-mutate-persist sequences per aggregate.
//
// Commands against one schedule or one term registration must not interleave:
// two writers that both pass an in-memory conflict or credit check against the
// same snapshot would persist a double-booking. A Locker runs fn while holding
// an exclusive lock for key. Different keys never block each other (beyond
// shard collisions in Sharded).
package lock

import (
	"context"
	"time"

	dErrors "campus/pkg/domain-errors"
)

// Locker runs fn while holding an exclusive lock for key.
type Locker interface {
	Run(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// DefaultTimeout bounds a locked section when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func aborted(err error) error {
	return dErrors.Wrap(err, dErrors.CodeTimeout, "command aborted: context cancelled")
}

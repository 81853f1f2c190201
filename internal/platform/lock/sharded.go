package lock

import (
	"context"
	"sync"
	"time"
)

// numShards spreads aggregate keys over independent mutexes.
const numShards = 128

// Sharded is an in-process Locker built on FNV-sharded mutexes. It serializes
// writers within one process only; multi-instance deployments use Redis.
type Sharded struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewSharded returns an in-process Locker. A zero timeout uses DefaultTimeout.
func NewSharded(timeout time.Duration) *Sharded {
	return &Sharded{timeout: timeout}
}

func (l *Sharded) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	ctx, cancel := withDefaultTimeout(ctx, l.timeout)
	defer cancel()

	shard := &l.shards[shardFor(key)]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	return fn(ctx)
}

func shardFor(key string) uint32 {
	return hashKey(key) % numShards
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"campus/pkg/platform/sentinel"
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a distributed Locker using SET NX PX with an owner token.
// The TTL should exceed the longest locked section.
type Redis struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// RedisOption configures a Redis locker.
type RedisOption func(*Redis)

// WithPrefix namespaces lock keys.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithRetryInterval sets how often acquisition is retried while the lock is held elsewhere.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.retryEvery = d
		}
	}
}

// WithTimeout bounds a locked section when the caller set no deadline.
func WithTimeout(d time.Duration) RedisOption {
	return func(r *Redis) {
		r.timeout = d
	}
}

// WithLogger sets the logger used for release failures.
func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRedis constructs a distributed Locker.
func NewRedis(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		prefix:     "campus:lock:",
		ttl:        ttl,
		retryEvery: 25 * time.Millisecond,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	ctx, cancel := withDefaultTimeout(ctx, r.timeout)
	defer cancel()

	lockKey := r.prefix + key
	token := uuid.NewString()
	if err := r.acquire(ctx, lockKey, token); err != nil {
		return err
	}

	fnErr := fn(ctx)

	// Release with a fresh context so a cancelled command still frees the key.
	releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer releaseCancel()
	// A lock that expired mid-section is not reported here: stores reject the
	// interleaved write with sentinel.ErrStale.
	if err := releaseScript.Run(releaseCtx, r.client, []string{lockKey}, token).Err(); err != nil {
		releaseErr := fmt.Errorf("release lock %s: %w", key, err)
		if fnErr != nil {
			return errors.Join(fnErr, releaseErr)
		}
		// fn already committed; the TTL frees the key.
		r.logger.WarnContext(ctx, "lock release failed",
			"lock_key", key,
			"ttl", r.ttl,
			"error", err,
		)
	}
	return fnErr
}

func (r *Redis) acquire(ctx context.Context, lockKey, token string) error {
	ticker := time.NewTicker(r.retryEvery)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return aborted(ctx.Err())
			}
			return fmt.Errorf("acquire lock: %w", errors.Join(err, sentinel.ErrUnavailable))
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return aborted(fmt.Errorf("%w: %w", ctx.Err(), sentinel.ErrLockHeld))
		case <-ticker.C:
		}
	}
}

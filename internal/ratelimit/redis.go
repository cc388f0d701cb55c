package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "pgrep:ratelimit:"

// RedisStore keeps counters in Redis so limits hold across instances.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements Store. The window starts with the first hit: the expiry is
// set only when the key has none, so later hits never extend it.
func (r *RedisStore) Incr(ctx context.Context, key string, d time.Duration) (int64, time.Time, error) {
	k := keyPrefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, eris.Wrap(err, "ratelimit: incr")
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		if err := r.client.PExpire(ctx, k, d).Err(); err != nil {
			return 0, time.Time{}, eris.Wrap(err, "ratelimit: expire")
		}
		remaining = d
	}
	return incr.Val(), time.Now().Add(remaining), nil
}

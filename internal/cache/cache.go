// Package cache adapts Redis to the upstream response cache.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisClient is the subset of redis.Client used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis stores upstream responses in Redis.
type Redis struct {
	client RedisClient
}

// NewRedis creates a Redis cache.
func NewRedis(client RedisClient) *Redis {
	return &Redis{client: client}
}

// Get returns the cached value; ok is false on a miss.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: get")
	}
	return b, true, nil
}

// Set stores a value with a TTL.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return eris.Wrap(c.client.Set(ctx, key, value, ttl).Err(), "cache: set")
}

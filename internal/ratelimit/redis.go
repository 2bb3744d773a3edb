package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter backed by a shared Redis instance,
// for deployments running more than one server process.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter creates a limiter over the given Redis client
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow implements the Limiter interface. The first increment of a window
// sets the key's expiry; the counter and its TTL together form the window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit counter unavailable: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return nil, fmt.Errorf("rate limit counter unavailable: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit counter unavailable: %w", err)
	}
	if ttl < 0 {
		ttl = window
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

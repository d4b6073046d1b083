// Package ratelimit provides a Redis-backed fixed-window rate limiter
// used to throttle credential endpoints per client IP.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in a fixed window using INCR + EXPIRE.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func rateLimitKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

// Allow records a request for the given IP and purpose and reports whether
// it is within the limit. The window starts at the first request and the
// counter expires with it.
func (l *Limiter) Allow(ctx context.Context, ip, purpose string) (bool, error) {
	key := rateLimitKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rankpilot/backend/internal/cache"
)

// keyPrefix namespaces limiter keys in Redis
const keyPrefix = "ratelimit:bookmarklet:"

// Redis is a fixed-window rate limiter backed by Redis INCR/EXPIRE, for
// deployments where multiple API instances must share window state.
type Redis struct {
	cache  *cache.Redis
	limit  int
	window time.Duration
}

// NewRedis creates a Redis-backed fixed-window limiter
func NewRedis(c *cache.Redis, limit int, window time.Duration) *Redis {
	return &Redis{
		cache:  c,
		limit:  limit,
		window: window,
	}
}

// Allow checks if a request from the given key should be allowed
func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := keyPrefix + key

	count, err := r.cache.Incr(ctx, redisKey)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First request in the window starts its expiry clock
	if count == 1 {
		if err := r.cache.Expire(ctx, redisKey, r.window); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	if int(count) > r.limit {
		ttl, err := r.cache.TTL(ctx, redisKey)
		if err != nil || ttl <= 0 {
			ttl = r.window
		}
		retryAfter := int(math.Ceil(ttl.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: r.limit - int(count)}, nil
}

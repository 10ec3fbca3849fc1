package db

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter defines the interface for rate limiting operations
type RateLimiter interface {
	// CheckRateLimit counts one event and reports whether it is within the limit
	CheckRateLimit(ctx context.Context, name, key string, limit int64, window time.Duration) (*RateLimitResult, error)

	// ResetRateLimit clears a rate limit bucket
	ResetRateLimit(ctx context.Context, name, key string) error
}

// Ensure RedisClient implements RateLimiter interface
var _ RateLimiter = (*RedisClient)(nil)

// ResetRateLimit clears a rate limit bucket, e.g. when a client disconnects.
func (r *RedisClient) ResetRateLimit(ctx context.Context, name, key string) error {
	return r.client.Del(ctx, r.prefixKey(fmt.Sprintf("ratelimit:%s:%s", name, key))).Err()
}

package db

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockRateLimiter is a mock implementation of RateLimiter for testing.
// It is safe for concurrent use.
type MockRateLimiter struct {
	// AlwaysAllow determines if all requests should be allowed (default: true)
	AlwaysAllow bool

	// CheckRateLimitFunc allows custom rate limit logic for testing
	CheckRateLimitFunc func(ctx context.Context, name, key string, limit int64, window time.Duration) (*RateLimitResult, error)

	mu     sync.Mutex
	calls  map[string]int
	resets map[string]int
}

// NewMockRateLimiter creates a new mock rate limiter that allows all requests by default
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{
		AlwaysAllow: true,
		calls:       make(map[string]int),
		resets:      make(map[string]int),
	}
}

// CheckRateLimit implements RateLimiter interface
func (m *MockRateLimiter) CheckRateLimit(ctx context.Context, name, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	m.mu.Lock()
	m.calls[name+":"+key]++
	m.mu.Unlock()

	if m.CheckRateLimitFunc != nil {
		return m.CheckRateLimitFunc(ctx, name, key, limit, window)
	}

	if m.AlwaysAllow {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: limit - 1,
		}, nil
	}

	return &RateLimitResult{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: window,
	}, nil
}

// ResetRateLimit implements RateLimiter interface
func (m *MockRateLimiter) ResetRateLimit(ctx context.Context, name, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[name+":"+key]++
	return nil
}

// CallCount returns the number of CheckRateLimit calls across all keys of name
func (m *MockRateLimiter) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for k, n := range m.calls {
		if strings.HasPrefix(k, name+":") {
			total += n
		}
	}
	return total
}

// ResetCount returns the number of ResetRateLimit calls across all keys of name
func (m *MockRateLimiter) ResetCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for k, n := range m.resets {
		if strings.HasPrefix(k, name+":") {
			total += n
		}
	}
	return total
}

// Ensure MockRateLimiter implements RateLimiter interface
var _ RateLimiter = (*MockRateLimiter)(nil)

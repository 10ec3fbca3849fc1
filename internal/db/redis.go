package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisClient(redisURL string, keyPrefix string) (*RedisClient, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{
		client:    client,
		keyPrefix: keyPrefix,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// prefixKey adds the configured prefix to a key
func (r *RedisClient) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// Get retrieves a value from Redis with the configured key prefix
func (r *RedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	return r.client.Get(ctx, r.prefixKey(key))
}

// Set stores a value in Redis with the configured key prefix
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return r.client.Set(ctx, r.prefixKey(key), value, expiration)
}

// SetJSON marshals value and stores it under key.
func (r *RedisClient) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.client.Set(ctx, r.prefixKey(key), data, expiration).Err()
}

// GetJSON loads key into dest. A missing key returns redis.Nil.
func (r *RedisClient) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool          // Whether the request is allowed
	Remaining  int64         // Remaining requests in the current window
	RetryAfter time.Duration // Time until the window resets
}

var rateLimitScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('INCR', key)

	if current == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl == -1 then
		redis.call('EXPIRE', key, window)
		ttl = window
	end

	return {current, ttl}
`)

// CheckRateLimit counts one event against a fixed-window bucket and reports
// whether it is within limit.
//
// Example usage:
//
//	result, err := redis.CheckRateLimit(ctx, "commands", "192.168.10.23:51234", 10, time.Second)
func (r *RedisClient) CheckRateLimit(ctx context.Context, name, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	rateLimitKey := r.prefixKey(fmt.Sprintf("ratelimit:%s:%s", name, key))

	windowSeconds := int64(window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	result, err := rateLimitScript.Run(ctx, r.client, []string{rateLimitKey}, limit, windowSeconds).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) != 2 {
		return nil, fmt.Errorf("unexpected rate limit script result")
	}

	current, ok := resultSlice[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected current count type")
	}

	ttl, ok := resultSlice[1].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected TTL type")
	}

	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:    current <= limit,
		Remaining:  remaining,
		RetryAfter: time.Duration(ttl) * time.Second,
	}, nil
}

// Publish publishes a message to a Redis pub/sub channel.
// Channel names are prefixed the same as keys so that Redis ACL rules apply consistently.
func (r *RedisClient) Publish(ctx context.Context, channel string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return r.client.Publish(ctx, r.prefixKey(channel), data).Err()
}

// Subscribe returns a PubSub handle for the given channels.
// Channel names are prefixed the same as keys; received channel names have the
// prefix stripped.
func (r *RedisClient) Subscribe(ctx context.Context, channels ...string) *PubSub {
	prefixed := make([]string, len(channels))
	for i, ch := range channels {
		prefixed[i] = r.prefixKey(ch)
	}
	return &PubSub{
		inner:     r.client.Subscribe(ctx, prefixed...),
		keyPrefix: r.keyPrefix,
	}
}

// PubSubEventKind distinguishes subscription confirmations from messages.
type PubSubEventKind int

const (
	PubSubSubscribed PubSubEventKind = iota
	PubSubUnsubscribed
	PubSubMessage
)

// PubSubEvent is a subscription confirmation or a message, with the key
// prefix stripped from Channel.
type PubSubEvent struct {
	Kind    PubSubEventKind
	Channel string
	Payload string
}

// PubSub wraps *redis.PubSub applying key-prefix handling transparently.
type PubSub struct {
	inner     *redis.PubSub
	keyPrefix string
}

// Subscribe adds channels to the subscription.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) error {
	prefixed := make([]string, len(channels))
	for i, ch := range channels {
		prefixed[i] = p.keyPrefix + ch
	}
	return p.inner.Subscribe(ctx, prefixed...)
}

// Unsubscribe removes channels from the subscription.
func (p *PubSub) Unsubscribe(ctx context.Context, channels ...string) error {
	prefixed := make([]string, len(channels))
	for i, ch := range channels {
		prefixed[i] = p.keyPrefix + ch
	}
	return p.inner.Unsubscribe(ctx, prefixed...)
}

// Events returns subscription confirmations as well as messages, so a caller
// can wait until Redis has registered a subscription before publishing.
// The returned channel closes when the PubSub is closed.
func (p *PubSub) Events() <-chan PubSubEvent {
	out := make(chan PubSubEvent, 100)
	inner := p.inner.ChannelWithSubscriptions()
	go func() {
		defer close(out)
		for raw := range inner {
			switch v := raw.(type) {
			case *redis.Subscription:
				kind := PubSubSubscribed
				if v.Kind == "unsubscribe" {
					kind = PubSubUnsubscribed
				}
				out <- PubSubEvent{Kind: kind, Channel: strings.TrimPrefix(v.Channel, p.keyPrefix)}
			case *redis.Message:
				out <- PubSubEvent{Kind: PubSubMessage, Channel: strings.TrimPrefix(v.Channel, p.keyPrefix), Payload: v.Payload}
			}
		}
	}()
	return out
}

// Close closes the subscription.
func (p *PubSub) Close() error {
	return p.inner.Close()
}

package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, using a
// fixed window counter (INCR + PEXPIRE). State is shared across API
// instances, so limits hold under horizontal scaling.
//
// The store fails open: if Redis is unreachable the request is allowed and
// the error is counted, so a cache outage degrades rate limiting rather
// than taking down the API.
type RedisRateLimitStore struct {
	client  *redis.Client
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// WithMetrics attaches middleware metrics so fail-open events are counted.
func (s *RedisRateLimitStore) WithMetrics(m *Metrics) *RedisRateLimitStore {
	s.metrics = m
	return s
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return s.failOpen(config)
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, key, config.WindowDuration).Err(); err != nil {
			return s.failOpen(config)
		}
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, config.RequestsPerWindow - int(count), 0
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return s.failOpen(config)
	}
	if ttl < 0 {
		// Counter without an expiry (e.g. a crash between INCR and
		// PEXPIRE). Reset the window rather than blocking the key forever.
		_ = s.client.PExpire(ctx, key, config.WindowDuration).Err()
		ttl = config.WindowDuration
	}

	retryAfter := int(ttl / time.Second)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, 0, retryAfter
}

func (s *RedisRateLimitStore) failOpen(config RateLimitConfig) (bool, int, int) {
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
	return true, config.RequestsPerWindow, 0
}

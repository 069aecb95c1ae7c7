package cache

import (
	"context"
	"time"

	"github.com/driftline/auth-service/internal/ports"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "auth:ratelimit:"

// RedisRateLimitStore implements fixed-window admission counters in Redis.
// INCR is atomic, so concurrent hits across instances never lose a count.
type RedisRateLimitStore struct {
	client *redis.Client
}

// NewRedisRateLimitStore creates the admission counter adapter.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (ports.RateLimitResult, error) {
	redisKey := rateLimitKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return ports.RateLimitResult{}, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return ports.RateLimitResult{}, err
		}
		return ports.RateLimitResult{Count: count, ResetAfter: window}, nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return ports.RateLimitResult{}, err
	}
	if ttl < 0 {
		// Counter survived without a deadline (crash between INCR and
		// EXPIRE); re-arm the window rather than pinning the key forever.
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return ports.RateLimitResult{}, err
		}
		ttl = window
	}
	return ports.RateLimitResult{Count: count, ResetAfter: ttl}, nil
}

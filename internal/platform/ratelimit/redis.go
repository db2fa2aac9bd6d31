package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares counters between API instances.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	period time.Duration
}

func NewRedisLimiter(client redis.Cmdable, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, period: period}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = "cardshop:ratelimit:" + key

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.period).Err(); err != nil {
			return false, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// key lost its expiry (crash between INCR and EXPIRE)
		l.client.Expire(ctx, key, l.period)
		ttl = l.period
	}
	return count <= int64(l.limit), ttl, nil
}

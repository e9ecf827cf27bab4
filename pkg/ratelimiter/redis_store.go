package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares counters between instances through Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a RedisStore whose keys start with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Hit implements Store. The first hit of a window sets its expiry.
func (s *RedisStore) Hit(ctx context.Context, key string, d time.Duration) (int, time.Time, error) {
	k := s.prefix + key

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, k, d).Err(); err != nil {
			return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
		}
		return 1, time.Now().Add(d), nil
	}

	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}
	if ttl <= 0 {
		// Expiry was lost; restart the window rather than block forever.
		_ = s.client.PExpire(ctx, k, d).Err()
		ttl = d
	}
	return int(count), time.Now().Add(ttl), nil
}

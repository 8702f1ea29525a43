package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// staleGrace keeps Redis keys slightly past their logical TTL so the Proxy,
// not Redis expiry, decides freshness.
const staleGrace = time.Minute

// RedisStore shares entries between service instances through Redis.
type RedisStore[V any] struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore that namespaces keys with prefix.
func NewRedisStore[V any](client redis.Cmdable, prefix string) *RedisStore[V] {
	return &RedisStore[V]{client: client, prefix: prefix}
}

func (s *RedisStore[V]) Get(ctx context.Context, key string) (Entry[V], bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry[V]{}, false, nil
		}
		return Entry[V]{}, false, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry[V]
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry[V]{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, true, nil
}

func (s *RedisStore[V]) Set(ctx context.Context, key string, entry Entry[V], ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl+staleGrace).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Package kv is the shared key-value backend behind the response cache,
// the product search cache and the daily token counter.
package kv

import (
	"context"
	"encoding/json"
	"time"
)

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// IncrBy atomically adds delta to the counter at key. The ttl is applied
	// only when the increment creates the key, so the window is fixed from
	// the first write.
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(b), ttl)
}

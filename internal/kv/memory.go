package kv

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps everything in process. Counters are not shared across
// replicas, so it is meant for single-instance deployments and tests.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	switch t := v.(type) {
	case string:
		return t, true, nil
	case int64:
		return strconv.FormatInt(t, 10), true, nil
	default:
		return "", false, fmt.Errorf("kv: unexpected value type %T for %s", v, key)
	}
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.cache.Set(key, value, expiration(ttl))
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

func (m *MemoryStore) IncrBy(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cache.Add(key, delta, expiration(ttl)); err == nil {
		return delta, nil
	}
	return m.cache.IncrementInt64(key, delta)
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return cache.NoExpiration
	}
	return ttl
}

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is the PERPETUAL backend: an in-memory map with optional TTL.
type MemoryCache struct {
	data   sync.Map
	config Config
}

type memoryItem struct {
	value      []byte
	expiration time.Time
}

// NewMemoryCache builds an in-memory cache for one namespace.
func NewMemoryCache(config Config) *MemoryCache {
	return &MemoryCache{config: config}
}

// Get retrieves a value, expiring it lazily.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := m.config.Namespace + ":" + key
	v, ok := m.data.Load(full)
	if !ok {
		return nil, ErrCacheMiss{Key: key}
	}
	item := v.(memoryItem)
	if !item.expiration.IsZero() && time.Now().After(item.expiration) {
		m.data.Delete(full)
		return nil, ErrCacheMiss{Key: key}
	}
	return item.value, nil
}

// Set stores a value with the given TTL, falling back to the configured
// default.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}
	m.data.Store(m.config.Namespace+":"+key, item)
	return nil
}

// Delete removes one key.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data.Delete(m.config.Namespace + ":" + key)
	return nil
}

// Clear removes every key in the namespace.
func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := m.config.Namespace + ":"
	m.data.Range(func(k, _ interface{}) bool {
		if strings.HasPrefix(k.(string), prefix) {
			m.data.Delete(k)
		}
		return true
	})
	return nil
}

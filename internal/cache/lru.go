package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// LRUCache is the LRU eviction backend, bounded by Config.Size entries.
type LRUCache struct {
	entries *lru.Cache
	config  Config
}

type lruItem struct {
	value      []byte
	expiration time.Time
}

// NewLRUCache builds a bounded cache for one namespace.
func NewLRUCache(config Config) (*LRUCache, error) {
	size := config.Size
	if size <= 0 {
		size = DefaultConfig(config.Namespace).Size
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries, config: config}, nil
}

// Get retrieves a value, counting as a use for eviction ordering.
func (l *LRUCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := l.config.Namespace + ":" + key
	v, ok := l.entries.Get(full)
	if !ok {
		return nil, ErrCacheMiss{Key: key}
	}
	item := v.(lruItem)
	if !item.expiration.IsZero() && time.Now().After(item.expiration) {
		l.entries.Remove(full)
		return nil, ErrCacheMiss{Key: key}
	}
	return item.value, nil
}

// Set stores a value, evicting the least recently used entry when full.
func (l *LRUCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = l.config.DefaultTTL
	}
	item := lruItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}
	l.entries.Add(l.config.Namespace+":"+key, item)
	return nil
}

// Delete removes one key.
func (l *LRUCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.entries.Remove(l.config.Namespace + ":" + key)
	return nil
}

// Clear drops every entry. Namespaces do not share LRU backends, so purging
// the whole store is equivalent to a prefix sweep.
func (l *LRUCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.entries.Purge()
	return nil
}

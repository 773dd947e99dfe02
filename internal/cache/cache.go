// Package cache provides the namespace statement caches selected by <cache>
// declarations: a TTL memory backend, an LRU backend, and a Redis backend.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all statement cache backends implement. Values are
// opaque byte slices; the executor serializes row sets before storing them.
type Cache interface {
	// Get retrieves a value, returning ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one key.
	Delete(ctx context.Context, key string) error

	// Clear removes every key in this cache's namespace.
	Clear(ctx context.Context) error
}

// Config holds settings common to all backends.
type Config struct {
	// Namespace prefixes every key so caches sharing a backend stay apart.
	Namespace string
	// DefaultTTL applies when Set receives a zero ttl.
	DefaultTTL time.Duration
	// Size bounds the LRU backend's entry count.
	Size int
}

// DefaultConfig returns the backend defaults: unbounded TTL, 1024 entries.
func DefaultConfig(namespace string) Config {
	return Config{Namespace: namespace, Size: 1024}
}

// ErrCacheMiss reports an absent or expired key.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	_, ok := err.(ErrCacheMiss)
	return ok
}

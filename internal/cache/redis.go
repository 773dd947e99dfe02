package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the REDIS backend, sharing statement caches across processes.
type RedisCache struct {
	client *redis.Client
	config Config
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	// Addr is the server address, host:port.
	Addr string
	// Password is optional.
	Password string
	// DB selects the Redis database number.
	DB int
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(rc RedisConfig, config Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client, config: config}, nil
}

// NewRedisCacheWithClient wraps an existing client, used by tests running
// against miniredis.
func NewRedisCacheWithClient(client *redis.Client, config Config) *RedisCache {
	return &RedisCache{client: client, config: config}
}

// Get retrieves a value.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.config.Namespace+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss{Key: key}
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value with the given TTL.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}
	return r.client.Set(ctx, r.config.Namespace+":"+key, value, ttl).Err()
}

// Delete removes one key.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.config.Namespace+":"+key).Err()
}

// Clear removes every key in the namespace with a cursor scan, so other
// namespaces sharing the server are untouched.
func (r *RedisCache) Clear(ctx context.Context) error {
	pattern := r.config.Namespace + ":*"
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

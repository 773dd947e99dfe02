package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(DefaultConfig("users"))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	c := NewMemoryCache(DefaultConfig("users"))
	_, err := c.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(DefaultConfig("users"))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(DefaultConfig("users"))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "b")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryCache(DefaultConfig("users"))
	orders := NewMemoryCache(DefaultConfig("orders"))

	require.NoError(t, users.Set(ctx, "k", []byte("u"), 0))
	_, err := orders.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	c, err := NewLRUCache(Config{Namespace: "users", Size: 2})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, err = c.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))

	got, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestLRUCache_TTL(t *testing.T) {
	c, err := NewLRUCache(Config{Namespace: "users", Size: 4})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestLRUCache_Clear(t *testing.T) {
	c, err := NewLRUCache(Config{Namespace: "users", Size: 4})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func newTestRedisCache(t *testing.T, namespace string) *RedisCache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewRedisCacheWithClient(client, DefaultConfig(namespace))
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c := newTestRedisCache(t, "users")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestRedisCache_Miss(t *testing.T) {
	c := newTestRedisCache(t, "users")
	_, err := c.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_ClearSweepsNamespaceOnly(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	users := NewRedisCacheWithClient(client, DefaultConfig("users"))
	orders := NewRedisCacheWithClient(client, DefaultConfig("orders"))
	ctx := context.Background()

	require.NoError(t, users.Set(ctx, "k", []byte("u"), 0))
	require.NoError(t, orders.Set(ctx, "k", []byte("o"), 0))

	require.NoError(t, users.Clear(ctx))

	_, err := users.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))

	got, err := orders.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("o"), got)
}

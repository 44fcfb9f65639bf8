package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/config"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg, "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "userProfile", []byte(`{"subscriptionStatus":"free"}`)))

	got, found, err := cache.Get(ctx, "userProfile")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"subscriptionStatus":"free"}`, string(got))

	raw, err := mr.Get("test:userProfile")
	require.NoError(t, err)
	assert.Equal(t, string(got), raw)
	assert.Zero(t, mr.TTL("test:userProfile"))
}

func TestSetOverwrites(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("first")))
	require.NoError(t, cache.Set(ctx, "key", []byte("second")))

	got, found, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", string(got))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	got, found, err := cache.Get(context.Background(), "no_such_key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestServerDown(t *testing.T) {
	cache, mr := setupTestCache(t)
	mr.Close()

	_, _, err := cache.Get(context.Background(), "key")
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), "key", []byte("v")))
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
	}

	cache, err := InitServer(context.Background(), cfg, "")
	assert.Nil(t, cache)
	assert.Error(t, err)
}

package storefront

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/voicecart/internal/config"
)

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "products:rice", []byte(`[]`), time.Minute))
	require.NoError(t, c.Set(ctx, "products:milk", []byte(`[1]`), 0))

	v, ok := c.Get(ctx, "products:rice")
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "products:rice")
	assert.False(t, ok)

	_, ok = c.Get(ctx, "products:milk")
	assert.True(t, ok, "zero TTL never expires")
}

func TestMemoryCache_SweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("products:query-%d", i), []byte(`[]`), time.Minute))
	}
	require.NoError(t, c.Set(ctx, "products:milk", []byte(`[1]`), 0))
	assert.Equal(t, 1001, c.Len())

	now = now.Add(time.Hour)
	require.NoError(t, c.Set(ctx, "products:bread", []byte(`[2]`), time.Minute))
	assert.Equal(t, 2, c.Len(), "only the unexpired entries survive")

	_, ok := c.Get(ctx, "products:milk")
	assert.True(t, ok)
}

func TestNewCache(t *testing.T) {
	c, err := NewCache(context.Background(), config.CacheConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = NewCache(context.Background(), config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	_, ok := c.Get(context.Background(), "x")
	assert.False(t, ok)

	_, err = NewCache(context.Background(), config.CacheConfig{Backend: "redis", RedisURL: "not-a-url"})
	assert.Error(t, err)
}

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Esraa-27/flash-sale-api/internal/cache"
)

func TestMemoryCache_PutGetForget(t *testing.T) {
	c := cache.NewMemoryCache(10, time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require := assert.New(t)
	require.NoError(c.Put(ctx, "k", "v", cache.DefaultTTL))

	v, ok := c.Get(ctx, "k")
	require.True(ok)
	require.Equal("v", v)
	require.True(c.Has(ctx, "k"))

	require.NoError(c.Forget(ctx, "k"))
	require.False(c.Has(ctx, "k"))
}

func TestMemoryCache_ForgetMany(t *testing.T) {
	c := cache.NewMemoryCache(10, time.Minute)
	ctx := context.Background()

	_ = c.Put(ctx, "a", "1", cache.DefaultTTL)
	_ = c.Put(ctx, "b", "2", cache.DefaultTTL)

	assert.NoError(t, c.ForgetMany(ctx, []string{"a", "b"}))
	assert.False(t, c.Has(ctx, "a"))
	assert.False(t, c.Has(ctx, "b"))
}

func TestAvailableStockKey(t *testing.T) {
	assert.Equal(t, "product_42_available_stock", cache.AvailableStockKey(42))
}

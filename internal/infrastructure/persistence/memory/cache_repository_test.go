package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(0)
	t.Cleanup(func() { cache.Close() })

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "recipe:1:nutrition", []byte(`{"calories":100}`), time.Minute))
	value, err := cache.Get(ctx, "recipe:1:nutrition")
	require.NoError(t, err)
	assert.Equal(t, `{"calories":100}`, string(value))

	exists, err := cache.Exists(ctx, "recipe:1:nutrition")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "recipe:1:nutrition"))
	exists, err = cache.Exists(ctx, "recipe:1:nutrition")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(0)
	t.Cleanup(func() { cache.Close() })

	require.NoError(t, cache.Set(ctx, "session:revoked:abc", []byte("1"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := cache.Get(ctx, "session:revoked:abc")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	exists, err := cache.Exists(ctx, "session:revoked:abc")
	require.NoError(t, err)
	assert.False(t, exists)

	cache.evict(time.Now())
	assert.Equal(t, 0, cache.Len())
}

func TestCacheRepositoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(0)
	t.Cleanup(func() { cache.Close() })

	value := []byte("abc")
	require.NoError(t, cache.Set(ctx, "k", value, 0))
	value[0] = 'x'

	stored, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(stored))
}

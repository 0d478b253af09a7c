package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache()
	t.Cleanup(c.Close)
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	title := "Fone Bluetooth"
	units := 4400

	tests := []struct {
		name  string
		key   string
		value domain.ProductRecord
	}{
		{
			name:  "record with sales",
			key:   "product:primary:B0TEST0001",
			value: domain.ProductRecord{Title: &title, Sales: &domain.SalesSignal{Units: units, Approximate: true}},
		},
		{
			name:  "record without fields",
			key:   "product:secondary:MLB123456",
			value: domain.ProductRecord{Marketplace: domain.LayoutSecondary},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t)
			require.NoError(t, c.Set(ctx, tt.key, tt.value, time.Minute))

			var got domain.ProductRecord
			require.NoError(t, c.Get(ctx, tt.key, &got))
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	title := "original"
	record := domain.ProductRecord{Title: &title}
	require.NoError(t, c.Set(ctx, "key", record, time.Minute))

	title = "mutated"

	var got domain.ProductRecord
	require.NoError(t, c.Get(ctx, "key", &got))
	require.NotNil(t, got.Title)
	assert.Equal(t, "original", *got.Title)
}

func TestMemoryCache_Miss(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	var got domain.ProductRecord
	assert.ErrorIs(t, c.Get(ctx, "absent", &got), domain.ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

	exists, err := c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)

	now = now.Add(2 * time.Minute)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "key", &got), domain.ErrCacheMiss)

	exists, err = c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, 1, c.Size())
	c.sweep()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	require.NoError(t, c.Delete(ctx, "a"))
	exists, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_DecodeError(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "key", "not a record", time.Minute))

	var got domain.ProductRecord
	err := c.Get(ctx, "key", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "shared", i, time.Minute)
			var got int
			_ = c.Get(ctx, "shared", &got)
		}(i)
	}
	wg.Wait()

	exists, err := c.Exists(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, exists)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string
	Price int64
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := New(context.Background(), mr.Addr(), "", 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetAndGet(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	want := []item{{Name: "Latte", Price: 180}}
	require.NoError(t, c.Set(ctx, "catalog:products:coffee", want))

	var got []item
	found, err := c.Get(ctx, "catalog:products:coffee", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "catalog:products:coffee", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetNotFound(t *testing.T) {
	c, _ := setupTestCache(t)

	var out item
	found, err := c.Get(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidatePrefix(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "catalog:products:a", 1))
	require.NoError(t, c.Set(ctx, "catalog:products:b", 2))
	require.NoError(t, c.Set(ctx, "catalog:stores", 3))

	require.NoError(t, c.InvalidatePrefix(ctx, "catalog:products:"))

	assert.False(t, mr.Exists("catalog:products:a"))
	assert.False(t, mr.Exists("catalog:products:b"))
	assert.True(t, mr.Exists("catalog:stores"))
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(context.Background(), "127.0.0.1:1", "", 0, time.Minute)
	require.Error(t, err)
}

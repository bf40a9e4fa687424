package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRedisCache_GetMissing(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 55*time.Minute))

	mr.FastForward(54 * time.Minute)
	_, err := c.Get(ctx, "k")
	assert.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestTypedHelpers(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	rates := map[string]float64{"USD": 1, "TRY": 32.5}
	require.NoError(t, SetTyped(ctx, c, "rates", rates, time.Minute))

	got, err := GetTyped[map[string]float64](ctx, c, "rates")
	require.NoError(t, err)
	assert.Equal(t, rates, got)

	_, err = GetTyped[map[string]float64](ctx, c, "absent")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestGetTyped_BadPayload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "not json", time.Minute))

	_, err := GetTyped[map[string]float64](ctx, c, "k")
	assert.ErrorIs(t, err, ErrJSONUnmarshal)
}

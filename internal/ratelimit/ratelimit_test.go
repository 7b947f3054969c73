package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	rdb := newMiniRedis(t)
	limiter := New(rdb, "test", 1, 2)
	fixed := time.Now()
	limiter.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, wait, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, wait)

	allowed, _, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are independent")
}

func TestLimiter_Refills(t *testing.T) {
	rdb := newMiniRedis(t)
	limiter := New(rdb, "test", 10, 1)
	current := time.Now()
	limiter.now = func() time.Time { return current }
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	current = current.Add(150 * time.Millisecond)
	allowed, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	var nilLimiter *Limiter
	allowed, _, err := nilLimiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = New(nil, "", 5, 10).Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = New(newMiniRedis(t), "", 0, 10).Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	_, _, err := New(rdb, "test", 1, 1).Allow(context.Background(), "k")
	assert.Error(t, err)
}

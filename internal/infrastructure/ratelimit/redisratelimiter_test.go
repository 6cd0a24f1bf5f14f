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

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRateLimiter_AllowPerMinute(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	config := RateLimitConfig{RequestsPerMinute: 5}

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "check:INV1", config)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "check:INV1", config)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")

	allowed, err = limiter.Allow(ctx, "check:INV2", config)
	require.NoError(t, err)
	assert.True(t, allowed, "keys are independent")

	used, err := limiter.Used(ctx, "check:INV1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(5), used, "denied requests are not recorded")
}

func TestRedisRateLimiter_WindowSlides(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	config := RateLimitConfig{RequestsPerMinute: 2, RequestsPerHour: 3}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "k", config)
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx, "k", config)
	require.NoError(t, err)
	assert.False(t, allowed)

	now = now.Add(61 * time.Second)
	allowed, err = limiter.Allow(ctx, "k", config)
	require.NoError(t, err)
	assert.True(t, allowed, "minute window slid")

	allowed, err = limiter.Allow(ctx, "k", config)
	require.NoError(t, err)
	assert.False(t, allowed, "hour window still full")
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	config := RateLimitConfig{RequestsPerMinute: 1}

	allowed, err := limiter.Allow(ctx, "k", config)
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))

	allowed, err = limiter.Allow(ctx, "k", config)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisRateLimiter(client).Allow(context.Background(), "k", RateLimitConfig{RequestsPerMinute: 1})
	assert.Error(t, err)
}

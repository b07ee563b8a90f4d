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
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestNewRedisRateLimiter(t *testing.T) {
	client := setupTestRedis(t)

	limiter := NewRedisRateLimiter(client, DefaultConfig())
	assert.NotNil(t, limiter)

	// Nil config falls back to defaults
	limiter = NewRedisRateLimiter(client, nil)
	assert.NotNil(t, limiter.config)
}

func TestRedisRateLimiter_AllowsWithinBurst(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, DefaultConfig())

	// auth_login allows a burst of 2
	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("user:1", "/api/v1/auth/login")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within burst should pass", i+1)
	}

	allowed, resetTime, err := limiter.Allow("user:1", "/api/v1/auth/login")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, resetTime, time.Duration(0))
}

func TestRedisRateLimiter_ClientsAreIndependent(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, DefaultConfig())

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("user:1", "/api/v1/auth/login")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, _, err := limiter.Allow("user:2", "/api/v1/auth/login")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_DisabledAllowsEverything(t *testing.T) {
	client := setupTestRedis(t)
	config := DefaultConfig()
	config.Enabled = false
	limiter := NewRedisRateLimiter(client, config)

	for i := 0; i < 50; i++ {
		allowed, _, err := limiter.Allow("user:1", "/api/v1/auth/login")
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

func TestRedisRateLimiter_Stats(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, DefaultConfig())

	for i := 0; i < 3; i++ {
		limiter.Allow("user:1", "/api/v1/auth/login")
	}

	stats := limiter.GetStats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
}

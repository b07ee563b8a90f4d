package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter_AllowsWithinBurst(t *testing.T) {
	limiter := NewMemoryRateLimiter(DefaultConfig())

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

func TestMemoryRateLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewMemoryRateLimiter(DefaultConfig())

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("user:1", "/api/v1/auth/login")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	// A different client has its own bucket
	allowed, _, err := limiter.Allow("user:2", "/api/v1/auth/login")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_EndpointsAreIndependent(t *testing.T) {
	limiter := NewMemoryRateLimiter(DefaultConfig())

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow("user:1", "/api/v1/auth/login")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	// Exhausting the login bucket does not touch the vehicles bucket
	allowed, _, err := limiter.Allow("user:1", "/api/v1/vehicles")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_DisabledAllowsEverything(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false
	limiter := NewMemoryRateLimiter(config)

	for i := 0; i < 100; i++ {
		allowed, _, err := limiter.Allow("user:1", "/api/v1/auth/login")
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

func TestMemoryRateLimiter_Stats(t *testing.T) {
	limiter := NewMemoryRateLimiter(DefaultConfig())

	for i := 0; i < 3; i++ {
		limiter.Allow("user:1", "/api/v1/auth/login")
	}

	stats := limiter.GetStats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
}

func TestConfig_GetEndpointKey(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		endpoint string
		method   string
		want     string
	}{
		{"/api/v1/auth/login", "POST", "auth_login"},
		{"/api/v1/auth/profile", "GET", "auth"},
		{"/api/v1/trips/abc123/dispatch", "POST", "dispatch"},
		{"/api/v1/trips/abc123/accept", "POST", "dispatch"},
		{"/api/v1/trips/abc123/reject", "POST", "dispatch"},
		{"/api/v1/trips", "GET", "trips"},
		{"/api/v1/vehicles", "POST", "vehicles_create"},
		{"/api/v1/vehicles", "GET", "vehicles"},
		{"/api/v1/chauffeurs", "GET", "chauffeurs"},
		{"/api/v1/notifications", "GET", "notifications"},
		{"/api/v1/users", "GET", "users"},
		{"/api/v1/health", "GET", "health"},
		{"/api/v1/unknown", "GET", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, config.GetEndpointKey(tt.endpoint, tt.method))
		})
	}
}

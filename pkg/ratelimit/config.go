package ratelimit

import (
	"strings"
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Default rate limits for different endpoint categories
	DefaultLimits map[string]RateLimit `json:"defaultLimits"`

	// Redis key prefix for rate limiting data
	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// Cleanup interval for expired rate limit data
	CleanupInterval time.Duration `json:"cleanupInterval"`

	// Enable/disable rate limiting
	Enabled bool `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimits: map[string]RateLimit{
			// Authentication endpoints are restrictive
			"auth":       {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			"auth_login": {RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute},

			// Dispatch actions mutate trip state, keep them tight
			"dispatch": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},

			// Fleet browsing endpoints
			"vehicles":        {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"vehicles_create": {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},
			"trips":           {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"chauffeurs":      {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},

			// Notification feed is polled by the console
			"notifications": {RequestsPerMinute: 200, BurstSize: 50, WindowSize: time.Minute},

			// User management
			"users": {RequestsPerMinute: 50, BurstSize: 10, WindowSize: time.Minute},

			// Health check is very permissive
			"health": {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			// Default fallback
			"default": {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// GetEndpointKey maps a request path and method to a rate limit category
func (c *Config) GetEndpointKey(endpoint, method string) string {
	switch {
	case strings.HasPrefix(endpoint, "/api/v1/auth/login"):
		return "auth_login"
	case strings.HasPrefix(endpoint, "/api/v1/auth"):
		return "auth"
	case strings.Contains(endpoint, "/dispatch") || strings.Contains(endpoint, "/accept") || strings.Contains(endpoint, "/reject"):
		return "dispatch"
	case strings.HasPrefix(endpoint, "/api/v1/vehicles"):
		if method == "POST" {
			return "vehicles_create"
		}
		return "vehicles"
	case strings.HasPrefix(endpoint, "/api/v1/trips"):
		return "trips"
	case strings.HasPrefix(endpoint, "/api/v1/chauffeurs"):
		return "chauffeurs"
	case strings.HasPrefix(endpoint, "/api/v1/notifications"):
		return "notifications"
	case strings.HasPrefix(endpoint, "/api/v1/users"):
		return "users"
	case strings.HasPrefix(endpoint, "/api/v1/health"):
		return "health"
	default:
		return "default"
	}
}

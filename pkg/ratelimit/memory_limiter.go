package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRateLimiter implements RateLimiter using in-memory token buckets. It
// is the fallback when Redis is unavailable.
type MemoryRateLimiter struct {
	config *Config
	stats  *RateLimiterStats
	tokens map[string]*TokenBucket
	mu     sync.Mutex
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &MemoryRateLimiter{
		config: config,
		stats:  &RateLimiterStats{},
		tokens: make(map[string]*TokenBucket),
	}

	go limiter.cleanupExpiredTokens()

	return limiter
}

// Allow checks if a request should be allowed based on rate limits
func (r *MemoryRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	limit := r.getRateLimit(endpoint)
	key := fmt.Sprintf("%s:%s", clientID, endpoint)

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.getOrCreateTokenBucket(key, limit)

	now := time.Now()
	if !bucket.LastRefill.IsZero() {
		elapsed := now.Sub(bucket.LastRefill)
		tokensToAdd := int(float64(limit.RequestsPerMinute) * elapsed.Minutes())
		if bucket.Tokens+tokensToAdd > bucket.Capacity {
			bucket.Tokens = bucket.Capacity
		} else {
			bucket.Tokens += tokensToAdd
		}
	}

	if bucket.Tokens > 0 {
		bucket.Tokens--
		bucket.LastRefill = now
		return true, 0, nil
	}

	resetTime := time.Minute / time.Duration(limit.RequestsPerMinute)
	atomic.AddInt64(&r.stats.BlockedRequests, 1)
	return false, resetTime, nil
}

func (r *MemoryRateLimiter) getRateLimit(endpoint string) RateLimit {
	endpointKey := r.config.GetEndpointKey(endpoint, "")

	if limit, exists := r.config.DefaultLimits[endpointKey]; exists {
		return limit
	}

	if defaultLimit, exists := r.config.DefaultLimits["default"]; exists {
		return defaultLimit
	}

	return RateLimit{
		RequestsPerMinute: 60,
		BurstSize:         15,
		WindowSize:        time.Minute,
	}
}

func (r *MemoryRateLimiter) getOrCreateTokenBucket(key string, limit RateLimit) *TokenBucket {
	if bucket, exists := r.tokens[key]; exists {
		return bucket
	}

	bucket := &TokenBucket{
		Capacity:   limit.BurstSize,
		Tokens:     limit.BurstSize,
		RefillRate: limit.RequestsPerMinute,
		LastRefill: time.Now(),
	}

	r.tokens[key] = bucket
	return bucket
}

// GetStats returns current rate limiter statistics
func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	return RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
	}
}

func (r *MemoryRateLimiter) cleanupExpiredTokens() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for key, bucket := range r.tokens {
			if now.Sub(bucket.LastRefill) > time.Hour {
				delete(r.tokens, key)
			}
		}
		r.mu.Unlock()
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hims/backend/internal/interfaces/http/dto"
)

type rateLimitClient struct {
	tokens    int
	lastSeen  time.Time
	resetTime time.Time
}

// RateLimiter implements a per-key token bucket limiter
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	limit   int
	window  time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit requests per
// window per key, and starts a background sweep of idle clients.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*rateLimitClient),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-3 * rl.window)
		for key, client := range rl.clients {
			if client.lastSeen.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether a request for key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[key]
	if !ok || now.After(client.resetTime) {
		rl.clients[key] = &rateLimitClient{
			tokens:    rl.limit - 1,
			lastSeen:  now,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	client.lastSeen = now
	if client.tokens <= 0 {
		return false
	}
	client.tokens--
	return true
}

// Remaining returns the number of requests left in the current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok || time.Now().After(client.resetTime) {
		return rl.limit
	}
	return client.tokens
}

// RateLimit returns a middleware limiting requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey returns a middleware using a custom key function
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))

		if !limiter.Allow(key) {
			c.Writer.Header().Set("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(dto.ErrCodeRateLimited, "rate limit exceeded"))
			return
		}

		c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}

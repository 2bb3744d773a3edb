package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"docvault/internal/config"
	"docvault/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter implements global rate limiting using token bucket algorithm
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	cleanup  time.Duration
	window   int
	requests int
}

// NewRateLimiter creates a new global rate limiter middleware
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	ratePerSecond := rate.Every(time.Duration(cfg.RateLimit.Window) * time.Second / time.Duration(cfg.RateLimit.Requests))

	limiter := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(ratePerSecond),
		burst:    cfg.RateLimit.Requests,
		cleanup:  time.Hour,
		window:   cfg.RateLimit.Window,
		requests: cfg.RateLimit.Requests,
	}

	go limiter.cleanupRoutine()

	return limiter
}

// getLimiter returns a rate limiter for the given key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double check after acquiring write lock
	limiter, exists = rl.limiters[key]
	if exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = limiter
	return limiter
}

// cleanupRoutine periodically drops idle limiters to bound memory
func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		rl.limiters = make(map[string]*rate.Limiter)
		rl.mu.Unlock()
	}
}

// Middleware returns a Gin middleware function that implements rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting for Swagger documentation
		if c.Request.URL.Path == "/swagger/index.html" ||
			c.Request.URL.Path == "/swagger/doc.json" ||
			c.Request.URL.Path == "/swagger/*any" {
			c.Next()
			return
		}

		key := c.ClientIP()
		limiter := rl.getLimiter(key)

		now := time.Now()
		if !limiter.AllowN(now, 1) {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(time.Duration(rl.window)*time.Second).Unix()))
			c.Header("Retry-After", fmt.Sprintf("%d", rl.window))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": fmt.Sprintf("%ds", rl.window),
			})
			c.Abort()
			return
		}

		tokens := int(limiter.Tokens())
		if tokens > rl.requests {
			tokens = rl.requests
		}
		if tokens < 0 {
			tokens = 0
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", tokens))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(time.Duration(rl.window)*time.Second).Unix()))

		c.Next()
	}
}

// KeyFunc derives the counter key for an endpoint limit from the request
type KeyFunc func(c *gin.Context) string

// KeyByIP buckets requests by client address, for unauthenticated endpoints
func KeyByIP(prefix string) KeyFunc {
	return func(c *gin.Context) string {
		return fmt.Sprintf("%s:%s", prefix, c.ClientIP())
	}
}

// KeyByUser buckets requests by authenticated user, falling back to the
// client address when AuthRequired has not run
func KeyByUser(prefix string) KeyFunc {
	return func(c *gin.Context) string {
		if user := CurrentUser(c); user != nil {
			return fmt.Sprintf("%s:%s", prefix, user.ID)
		}
		return fmt.Sprintf("%s:%s", prefix, c.ClientIP())
	}
}

// EndpointLimit returns a middleware enforcing a fixed-window budget for a
// single route. Counter backend failures let the request through; the global
// token bucket still applies.
func EndpointLimit(limiter ratelimit.Limiter, key KeyFunc, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), key(c), limit, window)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))

		if !res.Allowed {
			retryAfter := int(time.Until(res.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": fmt.Sprintf("%ds", retryAfter),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

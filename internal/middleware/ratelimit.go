package middleware

import (
	"net/http" // HTTP status codes
	"sync"     // Mutex for the limiter map

	"github.com/gin-gonic/gin" // Gin web framework
	"golang.org/x/time/rate"   // Token bucket rate limiting
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit // Refill rate per client
	burst    int        // Bucket size per client
}

// NewRateLimiter creates a per-client limiter allowing rps requests per second
func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    rps * 2,
	}
}

// limiter returns the bucket for a client, creating it on first sight
func (rl *RateLimiter) limiter(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[clientIP]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[clientIP] = l
	}
	return l
}

// RateLimit rejects requests that exceed the per-client budget.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			// Over budget, abort with too many requests
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next() // Proceed to the next handler
	}
}

package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowLimiter is an in-memory per-IP fixed-window rate limiter. Good
// enough for one admin client; swap to Redis when the API grows callers.
type WindowLimiter struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	seen  map[string]*counter
	sweep time.Time
}

type counter struct {
	n     int
	start time.Time
}

// NewWindowLimiter allows limit requests per window per client IP.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		limit:  limit,
		window: window,
		seen:   make(map[string]*counter),
		sweep:  time.Now(),
	}
}

// GinMiddleware returns a gin handler enforcing the limit.
func (l *WindowLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *WindowLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.sweep) > 10*l.window {
		for k, c := range l.seen {
			if now.Sub(c.start) > l.window {
				delete(l.seen, k)
			}
		}
		l.sweep = now
	}

	c, ok := l.seen[key]
	if !ok || now.Sub(c.start) > l.window {
		l.seen[key] = &counter{n: 1, start: now}
		return true
	}
	if c.n >= l.limit {
		return false
	}
	c.n++
	return true
}

// Package ratelimit provides a keyed token-bucket rate limiter and a gin
// middleware built on it
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"giggle-glide/internal/auth"
)

// KeyedLimiter manages per-key rate limiting. Each unique key gets its
// own independent token bucket.
type KeyedLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst
func New(rps float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request for key should proceed right now
func (k *KeyedLimiter) Allow(key string) bool {
	return k.getLimiter(key).Allow()
}

func (k *KeyedLimiter) getLimiter(key string) *rate.Limiter {
	k.mu.RLock()
	e, exists := k.limiters[key]
	k.mu.RUnlock()

	if exists {
		k.mu.Lock()
		e.lastSeen = time.Now()
		k.mu.Unlock()
		return e.limiter
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if e, exists = k.limiters[key]; exists {
		e.lastSeen = time.Now()
		return e.limiter
	}

	e = &entry{
		limiter:  rate.NewLimiter(k.limit, k.burst),
		lastSeen: time.Now(),
	}
	k.limiters[key] = e
	return e.limiter
}

// Cleanup drops buckets idle for longer than maxIdle and returns how many
// were removed. Intended to run from a periodic job.
func (k *KeyedLimiter) Cleanup(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
			removed++
		}
	}
	return removed
}

// Middleware limits requests per authenticated user, falling back to the
// client IP for unauthenticated routes
func (k *KeyedLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := auth.UserID(c); ok {
			key = userID.String()
		}

		if !k.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

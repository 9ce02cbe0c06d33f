package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// limiterCleanupThreshold is the map size that triggers pruning.
	limiterCleanupThreshold = 500
	limiterMaxIdle          = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands out one token bucket per client IP.
type rateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*limiterEntry
	limit rate.Limit
	burst int
}

// newRateLimiter returns nil when perSecond is zero, which disables limiting.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		ips:   make(map[string]*limiterEntry),
		limit: rate.Limit(perSecond),
		burst: burst,
	}
}

func (l *rateLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if len(l.ips) > limiterCleanupThreshold {
		cutoff := now.Add(-limiterMaxIdle)
		for key, entry := range l.ips {
			if entry.lastSeen.Before(cutoff) {
				delete(l.ips, key)
			}
		}
	}
	entry, ok := l.ips[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func (s *Server) limitSubmissions() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			log.Printf("submission rate limited remote=%s", c.ClientIP())
			s.metrics.submission("rate_limited")
			writeFail(c, http.StatusTooManyRequests, "rate limited")
			c.Abort()
			return
		}
		c.Next()
	}
}

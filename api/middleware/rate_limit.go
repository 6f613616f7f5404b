package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP. Buckets idle past ttl
// are dropped on the next lookup.
type RateLimiter struct {
	mutex    sync.Mutex
	buckets  map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

func NewRateLimiter(r rate.Limit, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     r,
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.bucketFor(c.RealIP()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}

func (l *RateLimiter) bucketFor(ip string) *rate.Limiter {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.evictIdle()
	if bucket, ok := l.buckets[ip]; ok {
		l.lastSeen[ip] = time.Now()
		return bucket
	}
	bucket := rate.NewLimiter(l.rate, l.burst)
	l.buckets[ip] = bucket
	l.lastSeen[ip] = time.Now()
	return bucket
}

func (l *RateLimiter) evictIdle() {
	if l.ttl == 0 {
		return
	}
	cutoff := time.Now().Add(-l.ttl)
	for ip, last := range l.lastSeen {
		if last.Before(cutoff) {
			delete(l.lastSeen, ip)
			delete(l.buckets, ip)
		}
	}
}

// Package ratelimit provides fixed-window request limits keyed by client.
package ratelimit

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter counts one hit for key and reports whether it is still within the
// limit, together with the time left in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type window struct {
	count int
	reset time.Time
}

// MemoryLimiter keeps counters in process. Used when no Redis is configured.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	period    time.Duration
	now       func() time.Time
	windows   map[string]*window
	nextSweep time.Time
}

func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.reset) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.period)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, w.reset.Sub(now), nil
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Limiter errors let the request through.
func Middleware(l Limiter, prefix string, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := l.Allow(r.Context(), prefix+":"+clientIP(r))
			if err != nil {
				logger.Printf("rate limit check failed: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "too many requests, please try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

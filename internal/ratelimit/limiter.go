// SPDX-License-Identifier: MIT

// Package ratelimit throttles tool-spawning requests with a token bucket per
// client IP plus an optional global bucket.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/vgrab/internal/metrics"
)

// Config holds rate limiting configuration.
type Config struct {
	// Per-IP limits
	PerIPRate  rate.Limit
	PerIPBurst int

	// Global limits; zero disables the global bucket.
	GlobalRate  rate.Limit
	GlobalBurst int

	// TrustForwarded reads the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that sets these headers.
	TrustForwarded bool

	// IdleTTL drops per-IP buckets unused for this long.
	IdleTTL time.Duration
}

// DefaultConfig returns the spawn limiter defaults.
func DefaultConfig() Config {
	return Config{
		PerIPRate:  1,
		PerIPBurst: 5,
		IdleTTL:    10 * time.Minute,
	}
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter manages per-IP token buckets.
type Limiter struct {
	config Config
	global *rate.Limiter

	mu          sync.Mutex
	perIP       map[string]*entry
	lastCleanup time.Time
	now         func() time.Time
}

// New creates a limiter for config.
func New(config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultConfig().IdleTTL
	}
	l := &Limiter{
		config:      config,
		perIP:       make(map[string]*entry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
	if config.GlobalRate > 0 {
		l.global = rate.NewLimiter(config.GlobalRate, config.GlobalBurst)
	}
	return l
}

// Allow reports whether clientIP may spawn another job now.
func (l *Limiter) Allow(clientIP string) bool {
	if l.global != nil && !l.global.Allow() {
		return false
	}

	l.mu.Lock()
	now := l.now()
	e, ok := l.perIP[clientIP]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)}
		l.perIP[clientIP] = e
	}
	e.lastSeen = now
	l.cleanupLocked(now)
	l.mu.Unlock()

	return e.lim.AllowN(now, 1)
}

// Tracked reports the number of live per-IP buckets.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perIP)
}

func (l *Limiter) cleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) < l.config.IdleTTL {
		return
	}
	for ip, e := range l.perIP {
		if now.Sub(e.lastSeen) >= l.config.IdleTTL {
			delete(l.perIP, ip)
		}
	}
	l.lastCleanup = now
}

// retryAfter is the wait for one token at the per-IP rate, in whole seconds.
func (l *Limiter) retryAfter() int {
	if l.config.PerIPRate <= 0 {
		return 60
	}
	secs := int(math.Ceil(1/float64(l.config.PerIPRate) - 1e-9))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Middleware rejects over-limit requests with 429 and a JSON error body.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r, l.config.TrustForwarded)) {
				metrics.IncRateLimitExceeded("spawn")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client IP. Forwarding headers are honored only when
// trustForwarded is set.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// "client, proxy1, proxy2": the first hop is the original client
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

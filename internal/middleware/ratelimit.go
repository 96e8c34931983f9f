package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter counts requests per key within fixed windows. Entries are
// cleaned up periodically; Stop terminates the cleanup goroutine.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string]*rateLimitEntry
	cleanup  *time.Ticker
	done     chan struct{}
}

type rateLimitEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Time window for rate limiting
}

// Common rate limit configurations
var (
	// Account creation: 5 accounts per hour per IP
	AccountCreationLimit = RateLimitConfig{MaxRequests: 5, Window: time.Hour}

	// Login attempts: 10 attempts per 15 minutes per IP
	LoginAttemptLimit = RateLimitConfig{MaxRequests: 10, Window: 15 * time.Minute}

	// Game creation: 10 per minute per IP
	GameCreationLimit = RateLimitConfig{MaxRequests: 10, Window: time.Minute}
)

// NewRateLimiter creates a new rate limiter with automatic cleanup
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string]*rateLimitEntry),
		cleanup:  time.NewTicker(5 * time.Minute),
		done:     make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-rl.cleanup.C:
				rl.cleanupExpired()
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.cleanup.Stop()
	close(rl.done)
}

func (rl *RateLimiter) cleanupExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, entry := range rl.requests {
		if now.After(entry.windowEnd) {
			delete(rl.requests, key)
		}
	}
}

// allow records a request against key and reports whether it is within the
// configured limit.
func (rl *RateLimiter) allow(key string, cfg RateLimitConfig) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.requests[key]
	if !ok || now.After(entry.windowEnd) {
		rl.requests[key] = &rateLimitEntry{count: 1, windowEnd: now.Add(cfg.Window)}
		return true
	}

	entry.count++
	return entry.count <= cfg.MaxRequests
}

// Limit wraps a handler with per-IP rate limiting.
func (rl *RateLimiter) Limit(cfg RateLimitConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r), cfg) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP extracts the caller's IP, preferring X-Forwarded-For when the
// server sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/meghkala/api/internal/domain"
)

// RateLimiterConfig tunes the per-client token bucket.
type RateLimiterConfig struct {
	// RequestsPerSecond is the steady refill rate per client.
	RequestsPerSecond float64

	// BurstSize caps how many requests a quiet client can fire at once.
	BurstSize int

	// CleanupInterval is how often idle client buckets are dropped.
	CleanupInterval time.Duration

	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(r *http.Request) string
}

// DefaultRateLimiterConfig covers the general API surface.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   time.Minute,
		KeyFunc:           clientIP,
	}
}

// StrictRateLimiterConfig throttles credential endpoints, where a burst
// is more likely an attack than a customer.
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
		KeyFunc:           clientIP,
	}
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// take refills by elapsed time, then spends one token if available.
func (b *bucket) take(rate float64, burst int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * rate
	if max := float64(burst); b.tokens > max {
		b.tokens = max
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimiter holds one token bucket per client key, in memory. State is
// per process; a multi-instance deployment limits per instance.
type RateLimiter struct {
	config  RateLimiterConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIP
	}
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.evictIdle()
	return rl
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.config.BurstSize), lastRefill: time.Now()}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	return b.take(rl.config.RequestsPerSecond, rl.config.BurstSize)
}

// evictIdle drops buckets that refilled completely and have been quiet
// for a full cleanup interval, keeping the map bounded by active clients.
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, b := range rl.buckets {
				b.mu.Lock()
				idle := b.tokens >= float64(rl.config.BurstSize) &&
					now.Sub(b.lastRefill) > rl.config.CleanupInterval
				b.mu.Unlock()
				if idle {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Middleware rejects over-limit clients with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.config.KeyFunc(r)) {
			w.Header().Set("Retry-After", "1")
			respondWithError(w, r, domain.Errorf(domain.ERATELIMIT, "middleware.rate_limit", "Too many requests, slow down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit builds a standalone rate limiting middleware. The limiter it
// starts lives for the life of the process.
func RateLimit(config RateLimiterConfig) func(http.Handler) http.Handler {
	return NewRateLimiter(config).Middleware
}

// clientIP resolves the originating client address, trusting proxy
// headers before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

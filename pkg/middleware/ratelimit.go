package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// RateLimitConfig sets the token bucket shape for one caller tier.
type RateLimitConfig struct {
	// RequestsPerWindow refills over each WindowDuration
	RequestsPerWindow int
	WindowDuration    time.Duration
	// BurstSize is extra headroom above the steady rate
	BurstSize int
}

func (c *RateLimitConfig) capacity() float64 {
	return float64(c.RequestsPerWindow + c.BurstSize)
}

func (c *RateLimitConfig) refillPerSecond() float64 {
	return float64(c.RequestsPerWindow) / c.WindowDuration.Seconds()
}

// DefaultRateLimitConfig limits anonymous callers, keyed by client IP.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{RequestsPerWindow: 100, WindowDuration: time.Minute, BurstSize: 10}
}

// PerUserRateLimitConfig limits authenticated readers and authors.
func PerUserRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{RequestsPerWindow: 1000, WindowDuration: time.Minute, BurstSize: 50}
}

// PerAdminRateLimitConfig limits admins; generous enough for bulk
// moderation sweeps.
func PerAdminRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{RequestsPerWindow: 5000, WindowDuration: time.Minute, BurstSize: 100}
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// RateLimiter is an in-process token bucket limiter keyed by caller.
// State lives in this process only; use DistributedRateLimitMiddleware
// when limits must hold across replicas.
type RateLimiter struct {
	config *RateLimitConfig

	mu      sync.RWMutex
	buckets map[string]*bucket
}

// NewRateLimiter creates a limiter; nil config gets the anonymous tier.
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{config: config, buckets: make(map[string]*bucket)}
}

func (rl *RateLimiter) bucketFor(key string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.buckets[key]; !ok {
		b = &bucket{tokens: rl.config.capacity(), lastSeen: time.Now()}
		rl.buckets[key] = b
	}
	return b
}

// Allow spends one token for key, refilling first by elapsed time.
func (rl *RateLimiter) Allow(key string) bool {
	b := rl.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.config.refillPerSecond()
	if max := rl.config.capacity(); b.tokens > max {
		b.tokens = max
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Remaining reports the whole tokens left for key.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if !ok {
		return int(rl.config.capacity())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.tokens)
}

// Cleanup drops buckets idle for two windows.
func (rl *RateLimiter) Cleanup() {
	cutoff := time.Now().Add(-2 * rl.config.WindowDuration)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// StartCleanup evicts idle buckets every window until ctx ends.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RateLimitMiddleware applies per-tier token buckets: admins, other
// authenticated users, and anonymous clients keyed by IP.
type RateLimitMiddleware struct {
	userLimiter      *RateLimiter
	adminLimiter     *RateLimiter
	anonymousLimiter *RateLimiter
}

// NewRateLimitMiddleware creates the middleware with the standard tiers.
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		userLimiter:      NewRateLimiter(PerUserRateLimitConfig()),
		adminLimiter:     NewRateLimiter(PerAdminRateLimitConfig()),
		anonymousLimiter: NewRateLimiter(DefaultRateLimitConfig()),
	}
}

// Handler enforces the limit and annotates responses with
// X-RateLimit-* headers.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, limiter := m.resolve(r)

		if !limiter.Allow(key) {
			writeRateLimited(w, limiter.config)
			return
		}

		setRateLimitHeaders(w, limiter.config, limiter.Remaining(key))
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) resolve(r *http.Request) (string, *RateLimiter) {
	identity, ok := GetIdentity(r)
	if !ok {
		return "ip:" + getClientIP(r), m.anonymousLimiter
	}
	if identity.Role == catalog.RoleAdmin {
		return "user:" + identity.UserID.String(), m.adminLimiter
	}
	return "user:" + identity.UserID.String(), m.userLimiter
}

func setRateLimitHeaders(w http.ResponseWriter, cfg *RateLimitConfig, remaining int) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RequestsPerWindow))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(cfg.WindowDuration).Unix()))
}

func writeRateLimited(w http.ResponseWriter, cfg *RateLimitConfig) {
	retryAfter := fmt.Sprintf("%.0f", cfg.WindowDuration.Seconds())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", retryAfter)
	setRateLimitHeaders(w, cfg, 0)
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded","retry_after":` + retryAfter + `}`))
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// DistributedRateLimiter is a fixed-window counter in Redis, so limits
// hold across API replicas. Coarser than the in-process token bucket
// but consistent cluster-wide.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a limiter counting under
// prefix:<key>. A nil config gets the anonymous tier.
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{redis: redisClient, config: config, prefix: prefix}
}

func (rl *DistributedRateLimiter) redisKey(key string) string {
	return rl.prefix + ":" + key
}

// Allow counts the request. INCR and EXPIRE run in one pipeline so the
// window starts when the first request lands. On Redis failure the
// request is allowed and the error returned, letting the middleware
// decide between failing open and closed.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, rl.redisKey(key))
	pipe.Expire(ctx, rl.redisKey(key), rl.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Remaining reports the unspent quota in the current window.
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := rl.redis.Get(ctx, rl.redisKey(key)).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow, nil
	}
	if err != nil {
		return 0, err
	}
	if remaining := rl.config.RequestsPerWindow - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// TTL reports the time until the current window resets.
func (rl *DistributedRateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, rl.redisKey(key)).Result()
}

// Reset clears the counter for key.
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.redisKey(key)).Err()
}

// DistributedRateLimitMiddleware mirrors RateLimitMiddleware's tiers
// on Redis counters.
type DistributedRateLimitMiddleware struct {
	redis            *redis.Client
	userLimiter      *DistributedRateLimiter
	adminLimiter     *DistributedRateLimiter
	anonymousLimiter *DistributedRateLimiter
	failOpen         bool
}

// NewDistributedRateLimitMiddleware creates the middleware. It fails
// open on Redis errors; SetFailOpen(false) trades availability for
// strict enforcement.
func NewDistributedRateLimitMiddleware(redisClient *redis.Client) *DistributedRateLimitMiddleware {
	return &DistributedRateLimitMiddleware{
		redis:            redisClient,
		userLimiter:      NewDistributedRateLimiter(redisClient, PerUserRateLimitConfig(), "ratelimit:user"),
		adminLimiter:     NewDistributedRateLimiter(redisClient, PerAdminRateLimitConfig(), "ratelimit:admin"),
		anonymousLimiter: NewDistributedRateLimiter(redisClient, DefaultRateLimitConfig(), "ratelimit:anon"),
		failOpen:         true,
	}
}

// Handler enforces the limit and annotates responses with
// X-RateLimit-* headers.
func (m *DistributedRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key, limiter := m.resolve(r)

		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			if m.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		if !allowed {
			m.writeRateLimited(ctx, w, limiter, key)
			return
		}

		if remaining, err := limiter.Remaining(ctx, key); err == nil {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			if ttl, err := limiter.TTL(ctx, key); err == nil && ttl > 0 {
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m *DistributedRateLimitMiddleware) resolve(r *http.Request) (string, *DistributedRateLimiter) {
	identity, ok := GetIdentity(r)
	if !ok {
		return "ip:" + getClientIP(r), m.anonymousLimiter
	}
	if identity.Role == catalog.RoleAdmin {
		return "user:" + identity.UserID.String(), m.adminLimiter
	}
	return "user:" + identity.UserID.String(), m.userLimiter
}

func (m *DistributedRateLimitMiddleware) writeRateLimited(ctx context.Context, w http.ResponseWriter, limiter *DistributedRateLimiter, key string) {
	retryAfter := limiter.config.WindowDuration
	if ttl, err := limiter.TTL(ctx, key); err == nil && ttl > 0 {
		retryAfter = ttl
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
	}

	seconds := fmt.Sprintf("%.0f", retryAfter.Seconds())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", seconds)
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerWindow))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded","retry_after":` + seconds + `}`))
}

// SetFailOpen controls behavior on Redis errors: open serves the
// request, closed answers 503.
func (m *DistributedRateLimitMiddleware) SetFailOpen(enabled bool) {
	m.failOpen = enabled
}

// HealthCheck verifies the backing Redis connection.
func (m *DistributedRateLimitMiddleware) HealthCheck(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}

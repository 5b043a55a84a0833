package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDistributedRateLimiter_CountsAcrossInstances(t *testing.T) {
	client := testRedis(t)
	cfg := &RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}

	// Two limiter instances sharing one Redis see the same counter
	a := NewDistributedRateLimiter(client, cfg, "ratelimit:test")
	b := NewDistributedRateLimiter(client, cfg, "ratelimit:test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter := a
		if i%2 == 1 {
			limiter = b
		}
		allowed, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := a.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestDistributedRateLimiter_Remaining(t *testing.T) {
	client := testRedis(t)
	limiter := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}, "ratelimit:test")
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, err = limiter.Allow(ctx, "fresh")
	require.NoError(t, err)
	remaining, err = limiter.Remaining(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestDistributedRateLimiter_Reset(t *testing.T) {
	client := testRedis(t)
	limiter := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "ratelimit:test")
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	allowed, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))
	allowed, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	limiter := NewDistributedRateLimiter(client, nil, "ratelimit:test")
	allowed, err := limiter.Allow(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimitMiddleware_Returns429WhenExhausted(t *testing.T) {
	client := testRedis(t)
	m := NewDistributedRateLimitMiddleware(client)
	m.anonymousLimiter = NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "ratelimit:anon")

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/books", nil)
	req.Header.Set("X-Real-IP", "10.1.1.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestDistributedRateLimitMiddleware_FailClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	m := NewDistributedRateLimitMiddleware(client)
	m.SetFailOpen(false)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/books", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, config Config) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config)
	t.Cleanup(rl.Stop)
	return rl
}

func TestAllowWithinBurst(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1, Burst: 3, CleanupInterval: time.Hour})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("user-1"), "request %d should be allowed", i)
	}
	assert.False(t, rl.Allow("user-1"))
}

func TestUsersAreIsolated(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1, Burst: 1, CleanupInterval: time.Hour})

	assert.True(t, rl.Allow("user-1"))
	assert.False(t, rl.Allow("user-1"))

	// A different user has their own bucket.
	assert.True(t, rl.Allow("user-2"))
}

func TestCleanupRemovesIdleLimiters(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1, Burst: 1, CleanupInterval: 10 * time.Millisecond})

	rl.Allow("user-1")
	require.Equal(t, 1, rl.Size())

	time.Sleep(30 * time.Millisecond)
	rl.Cleanup()
	assert.Equal(t, 0, rl.Size())
}

func TestCleanupKeepsActiveLimiters(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1, Burst: 1, CleanupInterval: time.Hour})

	rl.Allow("user-1")
	rl.Cleanup()
	assert.Equal(t, 1, rl.Size())
}

func TestMiddlewareLimitsPerUser(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1, Burst: 2, CleanupInterval: time.Hour})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(rl, func(r *http.Request) string {
		return r.Header.Get("X-Test-User")
	})(next)

	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("alice").Code)
	assert.Equal(t, http.StatusOK, do("alice").Code)

	rec := do("alice")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// Another user is unaffected.
	assert.Equal(t, http.StatusOK, do("bob").Code)
}

func TestMiddlewarePassesThroughAnonymous(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1, Burst: 1, CleanupInterval: time.Hour})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(rl, func(r *http.Request) string { return "" })(next)

	// Anonymous requests are never limited here; auth handles them.
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, rl.Size())
}

func TestConcurrentAccess(t *testing.T) {
	rl := newTestLimiter(t, Config{RPS: 1000, Burst: 1000, CleanupInterval: time.Hour})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				rl.Allow("shared-user")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, 1, rl.Size())
}

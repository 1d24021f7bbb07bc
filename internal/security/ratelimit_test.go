package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		BurstSize:         3,
	}, testLogger())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("client-a")
		assert.True(t, allowed, "request %d within burst should be allowed", i+1)
	}

	allowed, remaining := rl.Allow("client-a")
	assert.False(t, allowed, "request beyond burst should be rejected")
	assert.Equal(t, 0, remaining)
}

func TestRateLimiter_Allow_PerClientBuckets(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		BurstSize:         1,
	}, testLogger())
	defer rl.Stop()

	allowed, _ := rl.Allow("client-a")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("client-a")
	assert.False(t, allowed)

	// A different client has its own bucket.
	allowed, _ = rl.Allow("client-b")
	assert.True(t, allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, testLogger())
	defer rl.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := rl.Allow("client-a")
		assert.True(t, allowed)
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		BurstSize:         2,
	}, testLogger())
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/v1/generate/mindmap", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))

	send()
	rec = send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestRateLimiter_Middleware_ForwardedFor(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		BurstSize:         1,
	}, testLogger())
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Same proxy address, different forwarded clients.
	send := func(forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/v1/generate/mindmap", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("1.2.3.4").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4, 10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("5.6.7.8").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.10:443"
	assert.Equal(t, "192.168.1.10", clientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	assert.Equal(t, "1.2.3.4", clientIP(req))
}

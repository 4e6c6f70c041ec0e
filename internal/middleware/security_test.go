package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     requests,
		window:   window,
		cleanup:  2 * window,
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := SecurityHeadersMiddleware(handler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", rec.Header().Get("Permissions-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'none'")
	assert.Contains(t, csp, "frame-ancestors 'none'")
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := newTestLimiter(3, time.Minute)

		assert.True(t, rl.Allow("192.168.1.1"))
		assert.True(t, rl.Allow("192.168.1.1"))
		assert.True(t, rl.Allow("192.168.1.1"))
	})

	t.Run("blocks after exceeding limit", func(t *testing.T) {
		rl := newTestLimiter(2, time.Minute)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
	})

	t.Run("different IPs are independent", func(t *testing.T) {
		rl := newTestLimiter(1, time.Minute)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.2"))
	})

	t.Run("refills after window", func(t *testing.T) {
		rl := newTestLimiter(1, 50*time.Millisecond)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, rl.Allow("10.0.0.1"))
	})
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := newTestLimiter(1, time.Minute)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)

	rl.evictIdle(time.Now())

	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimitMiddleware(t *testing.T) {
	config := &RateLimitConfig{
		ReportLimiter: newTestLimiter(2, time.Minute),
		AdminLimiter:  newTestLimiter(3, time.Minute),
		GlobalLimiter: newTestLimiter(5, time.Minute),
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RateLimitMiddleware(config)(handler)

	exhaust := func(t *testing.T, method, path, addr string, allowed int) *httptest.ResponseRecorder {
		t.Helper()
		for i := 0; i < allowed; i++ {
			req := httptest.NewRequest(method, path, nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	t.Run("report submission uses report limiter", func(t *testing.T) {
		rec := exhaust(t, http.MethodPost, "/api/reports", "1.1.1.1:1234", 2)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"status":"error","kind":"rate_limited","message":"too many requests"}`, rec.Body.String())
	})

	t.Run("admin endpoints use admin limiter", func(t *testing.T) {
		rec := exhaust(t, http.MethodGet, "/api/admin/reports", "2.2.2.2:1234", 3)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("other endpoints use global limiter", func(t *testing.T) {
		rec := exhaust(t, http.MethodGet, "/healthz", "3.3.3.3:1234", 5)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestLimitBodyMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := LimitBodyMiddleware(handler)

	t.Run("allows small JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"type":"POST"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		body := strings.NewReader(strings.Repeat("a", MaxBodyBytes+1))
		req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("handles empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For single IP",
			xff:        "203.0.113.50",
			remoteAddr: "127.0.0.1:1234",
			expected:   "203.0.113.50",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			xff:        "203.0.113.50, 70.41.3.18, 150.172.238.178",
			remoteAddr: "127.0.0.1:1234",
			expected:   "203.0.113.50",
		},
		{
			name:       "X-Real-IP with whitespace",
			xri:        "  198.51.100.178  ",
			remoteAddr: "127.0.0.1:1234",
			expected:   "198.51.100.178",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			xff:        "203.0.113.50",
			xri:        "198.51.100.178",
			remoteAddr: "127.0.0.1:1234",
			expected:   "203.0.113.50",
		},
		{
			name:       "fallback to RemoteAddr with port",
			remoteAddr: "192.168.1.1:8080",
			expected:   "192.168.1.1",
		},
		{
			name:       "fallback to RemoteAddr without port",
			remoteAddr: "192.168.1.1",
			expected:   "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

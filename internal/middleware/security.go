package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mentorhub/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// MaxBodyBytes caps request bodies. Moderation payloads are small JSON
// documents.
const MaxBodyBytes = 1 << 20

// SecurityHeadersMiddleware sets response headers for a JSON-only API.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// LimitBodyMiddleware rejects request bodies larger than MaxBodyBytes once
// a handler reads past the limit.
func LimitBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands each client key its own token bucket allowing rate
// requests per window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	cleanup  time.Duration
}

// NewRateLimiter returns a limiter allowing requests per window for each key
// and starts a background sweep of idle keys.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     requests,
		window:   window,
		cleanup:  2 * window,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		every := rate.Every(rl.window / time.Duration(max(rl.rate, 1)))
		v = &visitor{limiter: rate.NewLimiter(every, rl.rate)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for range ticker.C {
		rl.evictIdle(time.Now())
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.cleanup {
			delete(rl.visitors, key)
		}
	}
}

// RateLimitConfig picks a limiter per class of endpoint.
type RateLimitConfig struct {
	// ReportLimiter guards report submission, the only write open to every user.
	ReportLimiter *RateLimiter
	// AdminLimiter guards the admin API.
	AdminLimiter *RateLimiter
	// GlobalLimiter covers everything else.
	GlobalLimiter *RateLimiter
}

// NewDefaultRateLimitConfig returns the production limits.
func NewDefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		ReportLimiter: NewRateLimiter(10, time.Minute),
		AdminLimiter:  NewRateLimiter(300, time.Minute),
		GlobalLimiter: NewRateLimiter(600, time.Minute),
	}
}

func (c *RateLimitConfig) limiterFor(r *http.Request) *RateLimiter {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/reports":
		return c.ReportLimiter
	case strings.HasPrefix(r.URL.Path, "/api/admin/"):
		return c.AdminLimiter
	default:
		return c.GlobalLimiter
	}
}

// RateLimitMiddleware rejects clients over their limit with 429.
func RateLimitMiddleware(config *RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := config.limiterFor(r)
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := GetClientIP(r)
			if !limiter.Allow(ip) {
				metrics.HTTPRateLimitedTotal.Inc()
				log.Warn().
					Str("client_ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"status":"error","kind":"rate_limited","message":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package routing

import (
	"net/http"

	"mentorhub/internal/handlers"
	"mentorhub/internal/metrics"
	"mentorhub/internal/middleware"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger
	// RateLimit overrides the default per-client limits.
	RateLimit *middleware.RateLimitConfig
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Operational endpoints
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Open to every authenticated user
	mux.HandleFunc("POST /api/reports", h.HandleCreateReport)

	// Reports
	mux.HandleFunc("GET /api/admin/reports", h.HandleListReports)
	mux.HandleFunc("GET /api/admin/reports/{id}", h.HandleGetReport)
	mux.HandleFunc("POST /api/admin/reports/{id}/resolve", h.HandleResolveReport)
	mux.HandleFunc("POST /api/admin/reports/{id}/actions", h.HandleTakeUserAction)
	mux.HandleFunc("POST /api/admin/reports/{id}/delete-content", h.HandleDeleteContent)
	mux.HandleFunc("POST /api/admin/reports/batch/resolve", h.HandleBatchResolve)
	mux.HandleFunc("POST /api/admin/reports/batch/dismiss", h.HandleBatchDismiss)

	// User actions
	mux.HandleFunc("GET /api/admin/actions", h.HandleListUserActions)
	mux.HandleFunc("POST /api/admin/actions/{id}/revoke", h.HandleRevokeUserAction)
	mux.HandleFunc("GET /api/admin/users/{id}/violations", h.HandleUserViolations)

	// Oversight
	mux.HandleFunc("GET /api/admin/analytics", h.HandleAnalytics)
	mux.HandleFunc("GET /api/admin/logs", h.HandleListLogs)
	mux.HandleFunc("POST /api/admin/audit-spool/replay", h.HandleReplayAuditSpool)

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.LimitBodyMiddleware(handler)

	// 2. Attach the caller id supplied by the gateway
	handler = middleware.IdentityMiddleware(handler)

	// 3. Reject cross-origin browser writes
	handler = http.NewCrossOriginProtection().Handler(handler)

	// 4. Apply rate limiting
	rateLimitConfig := cfg.RateLimit
	if rateLimitConfig == nil {
		rateLimitConfig = middleware.NewDefaultRateLimitConfig()
	}
	handler = middleware.RateLimitMiddleware(rateLimitConfig)(handler)

	// 5. Apply security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 6. Compress responses
	handler = gzhttp.GzipHandler(handler)

	// 7. Apply logging middleware
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	// 8. Trace every request (outermost - wraps everything)
	handler = otelhttp.NewHandler(handler, "mentorhub",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + metrics.NormalizePath(r.URL.Path)
		}),
	)

	return handler
}

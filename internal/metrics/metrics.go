package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentorhub_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	HTTPRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)

// Moderation gauges (updated periodically by collector)
var (
	PendingReports = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mentorhub_pending_reports",
		Help: "Number of content reports awaiting review",
	})

	ActiveBans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mentorhub_active_bans",
		Help: "Number of active temporary or permanent bans",
	})

	SpooledAuditEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mentorhub_spooled_audit_entries",
		Help: "Number of audit entries waiting in the spool for replay",
	})
)

// Event counters (incremented on occurrence)
var (
	ModerationOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_moderation_operations_total",
		Help: "Total number of moderation workflow operations by outcome",
	}, []string{"operation", "outcome"})

	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_reports_total",
		Help: "Total number of content reports submitted",
	}, []string{"type"})

	ReportResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_report_resolutions_total",
		Help: "Total number of reports moved out of pending",
	}, []string{"status"})

	UserActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_user_actions_total",
		Help: "Total number of user actions by type and operation",
	}, []string{"type", "operation"})

	AuditWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_audit_write_failures_total",
		Help: "Total number of moderation log entries that failed to persist",
	})

	AuditReplayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_audit_replayed_total",
		Help: "Total number of spooled audit entries written back to the moderation log",
	})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) < 3 || segments[0] != "api" || segments[1] != "admin" {
		return path
	}

	switch segments[2] {
	case "reports":
		switch {
		case len(segments) == 4:
			return "/api/admin/reports/:id"
		case len(segments) == 5 && segments[3] == "batch":
			return path
		case len(segments) == 5:
			return "/api/admin/reports/:id/" + segments[4]
		}
	case "actions":
		if len(segments) == 5 {
			return "/api/admin/actions/:id/" + segments[4]
		}
	case "users":
		if len(segments) == 5 {
			return "/api/admin/users/:id/" + segments[4]
		}
	}

	return path
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

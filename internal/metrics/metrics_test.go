package metrics

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Exact routes (no normalization needed)
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},
		{"/api/reports", "/api/reports"},
		{"/api/admin/reports", "/api/admin/reports"},
		{"/api/admin/actions", "/api/admin/actions"},
		{"/api/admin/analytics", "/api/admin/analytics"},
		{"/api/admin/logs", "/api/admin/logs"},
		{"/api/admin/audit-spool/replay", "/api/admin/audit-spool/replay"},

		// Batch routes look like report sub-resources but are static
		{"/api/admin/reports/batch/resolve", "/api/admin/reports/batch/resolve"},
		{"/api/admin/reports/batch/dismiss", "/api/admin/reports/batch/dismiss"},

		// Report ids
		{"/api/admin/reports/3lbx6kzdf2s2k", "/api/admin/reports/:id"},
		{"/api/admin/reports/3lbx6kzdf2s2k/resolve", "/api/admin/reports/:id/resolve"},
		{"/api/admin/reports/3lbx6kzdf2s2k/actions", "/api/admin/reports/:id/actions"},
		{"/api/admin/reports/3lbx6kzdf2s2k/delete-content", "/api/admin/reports/:id/delete-content"},

		// Action and user ids
		{"/api/admin/actions/3lbx6kzdf2s2k/revoke", "/api/admin/actions/:id/revoke"},
		{"/api/admin/users/u-42/violations", "/api/admin/users/:id/violations"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.input))
		})
	}
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestCollect(t *testing.T) {
	PendingReports.Set(0)
	ActiveBans.Set(7)
	SpooledAuditEntries.Set(0)

	collect(StatsSource{
		PendingReports:      func() int { return 4 },
		ActiveBans:          func() int { return -1 },
		SpooledAuditEntries: func() int { return 2 },
	})

	assert.Equal(t, 4.0, gaugeValue(t, PendingReports))
	assert.Equal(t, 7.0, gaugeValue(t, ActiveBans), "unavailable source leaves the gauge untouched")
	assert.Equal(t, 2.0, gaugeValue(t, SpooledAuditEntries))
}

func TestStartCollector_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 16)

	StartCollector(ctx, StatsSource{
		PendingReports: func() int {
			select {
			case calls <- struct{}{}:
			default:
			}
			return 1
		},
	}, 10*time.Millisecond)

	// initial synchronous collection plus at least one tick
	<-calls
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("collector never ticked")
	}
	cancel()
}

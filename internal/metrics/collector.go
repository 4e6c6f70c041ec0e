package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource provides functions to retrieve current counts for gauge metrics.
// Each function returns the current count; returning -1 indicates the source
// is unavailable and leaves the gauge untouched.
type StatsSource struct {
	PendingReports      func() int
	ActiveBans          func() int
	SpooledAuditEntries func() int
}

// StartCollector launches a goroutine that periodically updates gauge metrics.
// It runs every interval until the context is cancelled.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	// Do an initial collection immediately
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
}

func collect(src StatsSource) {
	setFrom(PendingReports, src.PendingReports)
	setFrom(ActiveBans, src.ActiveBans)
	setFrom(SpooledAuditEntries, src.SpooledAuditEntries)
}

type gauge interface {
	Set(float64)
}

func setFrom(g gauge, fn func() int) {
	if fn == nil {
		return
	}
	if n := fn(); n >= 0 {
		g.Set(float64(n))
	}
}

package moderation

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// Analytics window and list sizes.
const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
	analyticsTopN        = 5
	analyticsRecentLogs  = 20
)

// Analytics summarises moderation activity over a trailing window.
type Analytics struct {
	PeriodDays       int             `json:"periodDays"`
	Since            time.Time       `json:"since"`
	TotalReports     int64           `json:"totalReports"`
	PendingReports   int64           `json:"pendingReports"`
	ResolvedReports  int64           `json:"resolvedReports"`
	DismissedReports int64           `json:"dismissedReports"`
	ResolutionRate   float64         `json:"resolutionRate"`
	ReportsByType    []CountEntry    `json:"reportsByType"`
	TopReporters     []CountEntry    `json:"topReporters"`
	TopTargets       []CountEntry    `json:"topTargets"`
	RecentLogs       []ModerationLog `json:"recentLogs"`
}

// resolutionRate is the closed share of reports as a percentage rounded to
// two decimals. An empty window has a rate of zero.
func resolutionRate(total, resolved, dismissed int64) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(resolved+dismissed) / float64(total) * 100
	return math.Round(rate*100) / 100
}

func analyticsDays(days int) int {
	switch {
	case days <= 0:
		return DefaultAnalyticsDays
	case days > MaxAnalyticsDays:
		return MaxAnalyticsDays
	}
	return days
}

// Analytics computes report and action statistics for the last days days.
// The aggregations are independent and run concurrently.
func (e *Engine) Analytics(ctx context.Context, adminID string, days int) (*Analytics, error) {
	var out *Analytics
	err := e.run(ctx, "Analytics", adminID, PermissionViewAnalytics, func(ctx context.Context) error {
		days = analyticsDays(days)
		since := e.clock().AddDate(0, 0, -days)
		a := &Analytics{PeriodDays: days, Since: since}

		g, gctx := errgroup.WithContext(ctx)
		count := func(dst *int64, status ReportStatus) {
			g.Go(func() error {
				n, err := e.store.CountReports(gctx, since, status)
				*dst = n
				return err
			})
		}
		count(&a.TotalReports, "")
		count(&a.PendingReports, ReportStatusPending)
		count(&a.ResolvedReports, ReportStatusAddressed)
		count(&a.DismissedReports, ReportStatusDismissed)

		g.Go(func() (err error) {
			a.ReportsByType, err = e.store.CountReportsByType(gctx, since)
			return err
		})
		g.Go(func() (err error) {
			a.TopReporters, err = e.store.TopReporters(gctx, since, analyticsTopN)
			return err
		})
		g.Go(func() (err error) {
			a.TopTargets, err = e.store.TopActionTargets(gctx, since, analyticsTopN)
			return err
		})
		g.Go(func() (err error) {
			a.RecentLogs, err = e.store.ListLogs(gctx, LogFilter{Since: &since}, analyticsRecentLogs, "")
			return err
		})
		if err := g.Wait(); err != nil {
			return persistence(err)
		}

		a.ResolutionRate = resolutionRate(a.TotalReports, a.ResolvedReports, a.DismissedReports)
		a.ReportsByType = nonNil(a.ReportsByType)
		a.TopReporters = nonNil(a.TopReporters)
		a.TopTargets = nonNil(a.TopTargets)
		a.RecentLogs = nonNil(a.RecentLogs)

		out = a
		return nil
	})
	return out, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

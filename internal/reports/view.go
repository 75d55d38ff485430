// Package reports derives the read-only views shown over the submitted report list.
package reports

import (
	"context"
	"time"

	"adespota/internal/domain"
)

const DefaultRecentWindow = 7 * 24 * time.Hour

type Lister interface {
	// ListReports returns every report ordered by creation time, newest first.
	ListReports(ctx context.Context) ([]domain.SubmittedReport, error)
}

// HighPriority keeps reports with high urgency in their original order.
func HighPriority(all []domain.SubmittedReport) []domain.SubmittedReport {
	out := make([]domain.SubmittedReport, 0)
	for _, r := range all {
		if r.Urgency == domain.UrgencyHigh {
			out = append(out, r)
		}
	}
	return out
}

// Recent keeps reports created strictly after now-window.
func Recent(all []domain.SubmittedReport, now time.Time, window time.Duration) []domain.SubmittedReport {
	cutoff := now.Add(-window)
	out := make([]domain.SubmittedReport, 0)
	for _, r := range all {
		if r.Timestamp.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func Dashboard(all []domain.SubmittedReport, now time.Time, window time.Duration) domain.Dashboard {
	if all == nil {
		all = []domain.SubmittedReport{}
	}
	return domain.Dashboard{
		All:          all,
		HighPriority: HighPriority(all),
		Recent:       Recent(all, now, window),
	}
}

// View computes the dashboard from a single ListReports call.
type View struct {
	lister Lister
	window time.Duration
	now    func() time.Time
}

func NewView(lister Lister, window time.Duration) *View {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return &View{lister: lister, window: window, now: time.Now}
}

func (v *View) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	all, err := v.lister.ListReports(ctx)
	if err != nil {
		return domain.Dashboard{}, &domain.StoreError{Op: "reports.list", Err: err}
	}
	return Dashboard(all, v.now(), v.window), nil
}

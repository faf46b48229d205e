// Package usage describes completion token usage reports.
package usage

import (
	"time"

	"github.com/kailas-cloud/kbassist/internal/domain"
	"github.com/kailas-cloud/kbassist/internal/domain/usage/budget"
)

// Period is the aggregation granularity of a report.
type Period string

// Report periods. Total reuses the monthly counters without window edges.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period name; empty selects PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, nil
	}
	return "", domain.NewInvalidInput("period", "must be one of day, month, total")
}

// Window is the half-open UTC interval [Start, End) a report covers.
// The zero Window is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Bounded reports whether w has edges.
func (w Window) Bounded() bool { return !w.Start.IsZero() }

// WindowAt returns the window of p containing now. Budget counters roll over at
// UTC midnight and on the first of the month, so windows follow the same edges.
func (p Period) WindowAt(now time.Time) Window {
	now = now.UTC()
	switch p {
	case PeriodDay:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	}
	return Window{}
}

// Report is the completion token usage of one provider over one window.
type Report struct {
	period   Period
	window   Window
	provider string
	budget   budget.Budget
}

// NewReport creates a usage report.
func NewReport(period Period, window Window, provider string, b budget.Budget) Report {
	return Report{period: period, window: window, provider: provider, budget: b}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// Window returns the covered interval.
func (r *Report) Window() Window { return r.window }

// Provider returns the completion provider the budget belongs to.
func (r *Report) Provider() string { return r.provider }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }

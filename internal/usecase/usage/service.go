package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/kbassist/internal/domain/usage"
	"github.com/kailas-cloud/kbassist/internal/domain/usage/budget"
	"github.com/kailas-cloud/kbassist/internal/usecase/completion"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
// Total reports the monthly counters without window edges.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	var (
		snap     completion.BudgetSnapshot
		provider string
	)
	if s.br != nil {
		snap, provider = s.br.Snapshot(), s.br.Provider()
	}

	window := period.WindowAt(s.now())
	b := budget.New(snap.MonthlyLimit, snap.MonthlyUsed, snap.MonthlyRemaining, window.End)
	if period == domusage.PeriodDay {
		b = budget.New(snap.DailyLimit, snap.DailyUsed, snap.DailyRemaining, window.End)
	}
	return domusage.NewReport(period, window, provider, b)
}

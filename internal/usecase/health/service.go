// Package health reports whether the store and the completion provider are usable.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the aggregated health of the service.
type Status string

const (
	// Healthy: search and answers both work.
	Healthy Status = "ok"
	// Degraded: search works, answers fail.
	Degraded Status = "degraded"
	// Unhealthy: the article store is down.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component check.
type CheckResult string

// Check outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentDatabase   = "database"
	ComponentCompletion = "completion"
)

// DefaultProbeTTL is how long a provider probe result is reused.
const DefaultProbeTTL = 30 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs the component checks in parallel.
type Service struct {
	db       Pinger
	provider ProviderProbe
	timeout  time.Duration
	probeTTL time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastProbe  CheckResult
	lastProbed time.Time
}

// New creates a Service. provider may be nil. timeout bounds each check (0 = caller's deadline only).
func New(db Pinger, provider ProviderProbe, timeout time.Duration) *Service {
	return &Service{db: db, provider: provider, timeout: timeout, probeTTL: DefaultProbeTTL, now: time.Now}
}

// WithProbeTTL changes how long provider probe results are reused. 0 probes on every check.
func (s *Service) WithProbeTTL(ttl time.Duration) *Service {
	s.probeTTL = ttl
	return s
}

// Check probes every component. A dead store is Unhealthy, a failing provider only Degraded.
func (s *Service) Check(ctx context.Context) Report {
	var dbResult, providerResult CheckResult

	var g errgroup.Group
	g.Go(func() error {
		dbResult = s.run(ctx, s.db.Ping)
		return nil
	})
	if s.provider != nil {
		g.Go(func() error {
			providerResult = s.probeProvider(ctx)
			return nil
		})
	}
	_ = g.Wait()

	checks := map[string]CheckResult{ComponentDatabase: dbResult}
	if s.provider != nil {
		checks[ComponentCompletion] = providerResult
	}

	status := Healthy
	switch {
	case dbResult == CheckError:
		status = Unhealthy
	case providerResult == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) probeProvider(ctx context.Context) CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastProbe != "" && s.now().Sub(s.lastProbed) < s.probeTTL {
		return s.lastProbe
	}
	s.lastProbe = s.run(ctx, s.provider.HealthCheck)
	s.lastProbed = s.now()
	return s.lastProbe
}

func (s *Service) run(ctx context.Context, check func(context.Context) error) CheckResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := check(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

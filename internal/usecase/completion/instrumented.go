package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Snapshot() BudgetSnapshot
}

// InstrumentedCompleter wraps a Completer with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded by the provider clients.
type InstrumentedCompleter struct {
	inner    domcompletion.Completer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget may be nil (unlimited).
func NewInstrumentedCompleter(
	inner domcompletion.Completer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates and records token usage.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context, req domcompletion.Request,
) (domcompletion.Result, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			metrics.CompletionErrorsTotal.
				WithLabelValues(c.provider, c.model, string(domcompletion.ReasonOf(err))).Inc()
			c.logger.Error("Completion budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", c.model),
				zap.Error(err),
			)
			return domcompletion.Result{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := c.inner.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.String("reason", string(domcompletion.ReasonOf(err))),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domcompletion.Result{}, fmt.Errorf("complete: %w", err)
	}

	if c.budget != nil && res.TotalTokens() > 0 {
		c.budget.Record(int64(res.TotalTokens()))
		s := c.budget.Snapshot()
		remaining := metrics.CompletionBudgetTokensRemaining
		remaining.WithLabelValues(c.provider, "daily").Set(float64(s.DailyRemaining))
		remaining.WithLabelValues(c.provider, "monthly").Set(float64(s.MonthlyRemaining))
	}

	c.logger.Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("max_output_tokens", req.MaxOutputTokens),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("output_tokens", res.OutputTokens),
	)

	return res, nil
}

// HealthCheck delegates to the inner completer when it supports health checks.
func (c *InstrumentedCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domcompletion.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("completion health check: %w", err)
		}
	}
	return nil
}

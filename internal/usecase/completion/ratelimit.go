package completion

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/kbassist/internal/domain"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

// RateLimited throttles outbound completion calls with a token bucket.
// A caller waits at most maxWait for a slot before the call fails as rate limited.
type RateLimited struct {
	inner   domcompletion.Completer
	limiter *rate.Limiter
	maxWait time.Duration
}

// NewRateLimited wraps inner with rps requests per second and the given burst.
// maxWait <= 0 means wait as long as the caller's context allows.
func NewRateLimited(inner domcompletion.Completer, rps float64, burst int, maxWait time.Duration) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		maxWait: maxWait,
	}
}

// Complete waits for a rate limiter slot, then delegates.
func (r *RateLimited) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	waitCtx := ctx
	if r.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.maxWait)
		defer cancel()
	}

	if err := r.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonCanceled, ctx.Err())
		}
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonRateLimited,
			fmt.Errorf("%w: %w", domain.ErrRateLimited, err))
	}

	res, err := r.inner.Complete(ctx, req)
	if err != nil {
		return domcompletion.Result{}, fmt.Errorf("rate limited complete: %w", err)
	}
	return res, nil
}

// HealthCheck bypasses the limiter.
func (r *RateLimited) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domcompletion.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("rate limited health check: %w", err)
		}
	}
	return nil
}

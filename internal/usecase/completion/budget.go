package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/domain"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

// BudgetAction defines behavior when the completion token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists budget counters. IncrBy must be safe to call repeatedly.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetSnapshot is a consistent read of the tracker's counters.
// Remaining values are -1 when the corresponding limit is unlimited.
type BudgetSnapshot struct {
	DailyLimit       int64
	DailyUsed        int64
	DailyRemaining   int64
	MonthlyLimit     int64
	MonthlyUsed      int64
	MonthlyRemaining int64
}

// BudgetTracker keeps daily and monthly completion token counters in memory.
// Check never leaves the process; Record writes behind to the attached store.
type BudgetTracker struct {
	mu           sync.Mutex
	provider     string
	dailyLimit   int64
	monthlyLimit int64
	action       BudgetAction
	dailyUsed    int64
	monthlyUsed  int64
	day          time.Time
	month        time.Time
	store        BudgetStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewBudgetTracker creates a tracker; a zero limit means unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	now := b.now()
	b.day, b.month = startOfDay(now), startOfMonth(now)
	return b
}

// WithStore attaches persistence and loads the current period counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()

	if v, err := store.Get(ctx, b.dailyKey(now)); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily completion budget", zap.Error(err))
	}
	if v, err := store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthlyUsed = v
	} else {
		b.logger.Warn("Failed to load monthly completion budget", zap.Error(err))
	}

	b.logger.Info("Completion budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%scompletion_budget:%s:daily:%s", domain.KeyPrefix, b.provider, t.Format("2006-01-02"))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%scompletion_budget:%s:monthly:%s", domain.KeyPrefix, b.provider, t.Format("2006-01"))
}

// Check reports whether a new completion may be sent.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	dailyOver := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthlyOver := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !dailyOver && !monthlyOver {
		return nil
	}

	if b.action == BudgetActionReject {
		return domcompletion.Fail(domcompletion.ReasonQuota, domain.ErrCompletionQuotaExceeded)
	}

	b.logger.Warn("Completion token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens and persists the increment when a store is attached.
func (b *BudgetTracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	now := b.now()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a cancelled caller still gets its usage counted.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, key := range []string{b.dailyKey(now), b.monthlyKey(now)} {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist completion budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Snapshot returns the current counters.
func (b *BudgetTracker) Snapshot() BudgetSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	return BudgetSnapshot{
		DailyLimit:       b.dailyLimit,
		DailyUsed:        b.dailyUsed,
		DailyRemaining:   remaining(b.dailyLimit, b.dailyUsed),
		MonthlyLimit:     b.monthlyLimit,
		MonthlyUsed:      b.monthlyUsed,
		MonthlyRemaining: remaining(b.monthlyLimit, b.monthlyUsed),
	}
}

// Provider returns the provider name the budget is tracked for.
func (b *BudgetTracker) Provider() string { return b.provider }

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	now := b.now()
	if d := startOfDay(now); d.After(b.day) {
		b.dailyUsed = 0
		b.day = d
	}
	if m := startOfMonth(now); m.After(b.month) {
		b.monthlyUsed = 0
		b.month = m
	}
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(0, limit-used)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Package budget holds a point-in-time view of the completion token budget.
package budget

import "time"

// Budget is a completion token budget snapshot for one period.
type Budget struct {
	limit     int64
	used      int64
	remaining int64
	resetsAt  time.Time
}

// New creates a snapshot. limit 0 means unlimited, reported with remaining -1.
// A zero resetsAt means the counters never roll over.
func New(limit, used, remaining int64, resetsAt time.Time) Budget {
	if limit == 0 {
		remaining = -1
	}
	return Budget{limit: limit, used: used, remaining: remaining, resetsAt: resetsAt}
}

// TokensLimit returns the token cap (0 = unlimited).
func (b Budget) TokensLimit() int64 { return b.limit }

// TokensUsed returns tokens consumed in the period.
func (b Budget) TokensUsed() int64 { return b.used }

// TokensRemaining returns tokens left, or -1 when unlimited.
func (b Budget) TokensRemaining() int64 { return b.remaining }

// IsUnlimited reports whether no cap is configured.
func (b Budget) IsUnlimited() bool { return b.limit == 0 }

// IsExhausted reports whether a capped budget is spent.
func (b Budget) IsExhausted() bool { return b.limit > 0 && b.remaining <= 0 }

// ResetsAt returns when the counters roll over, zero if never.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }

// ResetsIn returns the time left until rollover, 0 if never or already past.
func (b Budget) ResetsIn(now time.Time) time.Duration {
	if b.resetsAt.IsZero() {
		return 0
	}
	return max(b.resetsAt.Sub(now), 0)
}

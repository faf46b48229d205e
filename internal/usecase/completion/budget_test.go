package completion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/domain"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

func TestBudgetTracker_RejectWhenDailyExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionReject, zap.NewNop())
	bt.Record(100)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrCompletionQuotaExceeded) {
		t.Fatalf("expected ErrCompletionQuotaExceeded, got %v", err)
	}
	if domcompletion.ReasonOf(err) != domcompletion.ReasonQuota {
		t.Errorf("reason = %q", domcompletion.ReasonOf(err))
	}
}

func TestBudgetTracker_RejectWhenMonthlyExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 500, BudgetActionReject, zap.NewNop())
	bt.Record(500)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrCompletionQuotaExceeded) {
		t.Fatalf("expected ErrCompletionQuotaExceeded, got %v", err)
	}
}

func TestBudgetTracker_WarnAllows(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionWarn, zap.NewNop())
	bt.Record(200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("warn action must not reject, got %v", err)
	}
}

func TestBudgetTracker_Unlimited(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 0, BudgetActionReject, zap.NewNop())
	bt.Record(1 << 40)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := bt.Snapshot()
	if s.DailyRemaining != -1 || s.MonthlyRemaining != -1 {
		t.Errorf("unlimited remaining must be -1, got %+v", s)
	}
}

func TestBudgetTracker_Snapshot(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.Record(300)
	bt.Record(0)
	bt.Record(-5)

	s := bt.Snapshot()
	if s.DailyUsed != 300 || s.DailyRemaining != 700 {
		t.Errorf("daily: %+v", s)
	}
	if s.MonthlyUsed != 300 || s.MonthlyRemaining != 9700 {
		t.Errorf("monthly: %+v", s)
	}
}

func TestBudgetTracker_RemainingNeverNegative(t *testing.T) {
	bt := NewBudgetTracker("test", 10, 10, BudgetActionWarn, zap.NewNop())
	bt.Record(50)
	if s := bt.Snapshot(); s.DailyRemaining != 0 || s.MonthlyRemaining != 0 {
		t.Errorf("got %+v", s)
	}
}

func TestBudgetTracker_RolloverResetsDaily(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 1000, BudgetActionReject, zap.NewNop())
	now := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	bt.now = func() time.Time { return now }
	bt.day, bt.month = startOfDay(now), startOfMonth(now)

	bt.Record(100)
	if err := bt.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before rollover")
	}

	now = now.Add(2 * time.Hour) // April 1st
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected budget reset after rollover, got %v", err)
	}
	if s := bt.Snapshot(); s.DailyUsed != 0 || s.MonthlyUsed != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
}

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	incErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return m.incErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func TestBudgetTracker_WithStore_LoadsCounters(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionReject, zap.NewNop())
	now := bt.now()
	store.data[bt.dailyKey(now)] = 300
	store.data[bt.monthlyKey(now)] = 5000

	bt.WithStore(context.Background(), store)

	s := bt.Snapshot()
	if s.DailyUsed != 300 || s.MonthlyUsed != 5000 {
		t.Errorf("got %+v", s)
	}
}

func TestBudgetTracker_WithStore_LoadErrorStartsAtZero(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("connection refused")

	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionReject, zap.NewNop())
	bt.WithStore(context.Background(), store)

	if s := bt.Snapshot(); s.DailyUsed != 0 || s.MonthlyUsed != 0 {
		t.Errorf("got %+v", s)
	}
}

func TestBudgetTracker_Record_WritesBehind(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 10000, 100000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)

	now := bt.now()
	store.mu.Lock()
	daily, monthly := store.data[bt.dailyKey(now)], store.data[bt.monthlyKey(now)]
	store.mu.Unlock()
	if daily != 300 || monthly != 300 {
		t.Errorf("store daily=%d monthly=%d, want 300/300", daily, monthly)
	}
}

func TestBudgetTracker_Record_StoreErrorKeepsMemory(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)
	store.incErr = errors.New("write timeout")

	bt.Record(50)

	if s := bt.Snapshot(); s.DailyUsed != 50 {
		t.Errorf("expected in-memory counter to advance, got %+v", s)
	}
}

func TestBudgetTracker_KeyFormat(t *testing.T) {
	bt := NewBudgetTracker("openai", 0, 0, BudgetActionWarn, zap.NewNop())
	at := time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC)

	if got := bt.dailyKey(at); got != domain.KeyPrefix+"completion_budget:openai:daily:2025-07-04" {
		t.Errorf("daily key = %q", got)
	}
	if got := bt.monthlyKey(at); !strings.HasSuffix(got, ":monthly:2025-07") {
		t.Errorf("monthly key = %q", got)
	}
}

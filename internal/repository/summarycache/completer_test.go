package summarycache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/db"
	"github.com/kailas-cloud/kbassist/internal/domain"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

func TestComplete_Miss(t *testing.T) {
	inner := &mockCompleter{result: domcompletion.Result{Text: "summary", PromptTokens: 100, OutputTokens: 20}}
	cc, ms := newTestCachedCompleter(t, inner)

	var storedKey string
	var storedTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		storedKey, storedTTL = key, ttl
		if string(value) != "summary" {
			t.Errorf("stored value = %q", value)
		}
		return nil
	}

	res, err := cc.Complete(context.Background(), domcompletion.Request{Prompt: "p", MaxOutputTokens: 2000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens() != 120 {
		t.Errorf("miss must report real usage, got %d", res.TotalTokens())
	}
	if !strings.HasPrefix(storedKey, domain.KeyPrefix+"summary_cache:") {
		t.Errorf("key = %q", storedKey)
	}
	if storedTTL != time.Hour {
		t.Errorf("ttl = %v", storedTTL)
	}
}

func TestComplete_Hit(t *testing.T) {
	inner := &mockCompleter{}
	cc, ms := newTestCachedCompleter(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("cached summary"), nil
	}

	res, err := cc.Complete(context.Background(), domcompletion.Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "cached summary" || res.TotalTokens() != 0 {
		t.Errorf("unexpected hit result: %+v", res)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times on hit", inner.calls)
	}
}

func TestComplete_InnerErrorNotCached(t *testing.T) {
	inner := &mockCompleter{err: domcompletion.Fail(domcompletion.ReasonTransport, errors.New("down"))}
	cc, ms := newTestCachedCompleter(t, inner)
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		t.Error("failed completion must not be cached")
		return nil
	}

	_, err := cc.Complete(context.Background(), domcompletion.Request{Prompt: "p"})
	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
	}
}

func TestComplete_StoreReadErrorFallsThrough(t *testing.T) {
	inner := &mockCompleter{result: domcompletion.Result{Text: "fresh"}}
	cc, ms := newTestCachedCompleter(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("timeout")}
	}

	res, err := cc.Complete(context.Background(), domcompletion.Request{Prompt: "p"})
	if err != nil || res.Text != "fresh" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestCacheKey_DependsOnWholeRequest(t *testing.T) {
	base := domcompletion.Request{Prompt: "p", MaxOutputTokens: 2000, Temperature: 0.3}
	variants := []domcompletion.Request{
		{Prompt: "q", MaxOutputTokens: 2000, Temperature: 0.3},
		{Prompt: "p", MaxOutputTokens: 1000, Temperature: 0.3},
		{Prompt: "p", MaxOutputTokens: 2000, Temperature: 0.7},
	}
	for _, v := range variants {
		if cacheKey("openai/m", v) == cacheKey("openai/m", base) {
			t.Errorf("cache key collision for %+v", v)
		}
	}
	if cacheKey("openai/m", base) != cacheKey("openai/m", base) {
		t.Error("cache key not deterministic")
	}
	for _, model := range []string{"openai/other", "anthropic/m", ""} {
		if cacheKey(model, base) == cacheKey("openai/m", base) {
			t.Errorf("model %q shares a cache key with openai/m", model)
		}
	}
}

func TestComplete_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_summary_cache_total"}, []string{"result"})
	inner := &mockCompleter{result: domcompletion.Result{Text: "s"}}
	ms := &mockKVStore{}
	cc := New(inner, ms, "openai/test-model", time.Minute, counter, zap.NewNop())

	_, _ = cc.Complete(context.Background(), domcompletion.Request{Prompt: "a"})
	ms.getFn = func(context.Context, string) ([]byte, error) { return []byte("s"), nil }
	_, _ = cc.Complete(context.Background(), domcompletion.Request{Prompt: "a"})

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("miss = %f", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("hit = %f", v)
	}
}

func TestComplete_ModelSwitchMisses(t *testing.T) {
	saved := map[string][]byte{}
	ms := &mockKVStore{
		getFn: func(_ context.Context, key string) ([]byte, error) {
			if v, ok := saved[key]; ok {
				return v, nil
			}
			return nil, db.ErrKeyNotFound
		},
		setFn: func(_ context.Context, key string, value []byte, _ time.Duration) error {
			saved[key] = value
			return nil
		},
	}
	req := domcompletion.Request{Prompt: "same articles", MaxOutputTokens: 2000}

	oldInner := &mockCompleter{result: domcompletion.Result{Text: "old model summary"}}
	if _, err := New(oldInner, ms, "openai/gpt-old", time.Hour, nil, zap.NewNop()).
		Complete(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newInner := &mockCompleter{result: domcompletion.Result{Text: "new model summary"}}
	res, err := New(newInner, ms, "openai/gpt-new", time.Hour, nil, zap.NewNop()).
		Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "new model summary" || newInner.calls != 1 {
		t.Errorf("got %q after %d calls, want a fresh summary", res.Text, newInner.calls)
	}
}

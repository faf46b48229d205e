package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/kbassist/internal/domain"
)

type stubCompleter struct {
	res Result
	err error
}

func (s *stubCompleter) Complete(_ context.Context, _ Request) (Result, error) {
	return s.res, s.err
}

func TestError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("summarize: %w", Fail(ReasonTransport, cause))

	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Error("expected ErrCompletionUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if ReasonOf(err) != ReasonTransport {
		t.Errorf("ReasonOf = %q", ReasonOf(err))
	}
}

func TestReasonOf_Sentinels(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{nil, ""},
		{fmt.Errorf("budget: %w", domain.ErrCompletionQuotaExceeded), ReasonQuota},
		{fmt.Errorf("wait: %w", domain.ErrRateLimited), ReasonRateLimited},
		{context.DeadlineExceeded, ReasonCanceled},
		{domain.ErrCompletionUnavailable, ReasonTransport},
		{errors.New("boom"), ReasonUnknown},
	}
	for _, tc := range tests {
		if got := ReasonOf(tc.err); got != tc.want {
			t.Errorf("ReasonOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestAttempt_Success(t *testing.T) {
	o := Attempt(context.Background(), &stubCompleter{res: Result{Text: "hi", PromptTokens: 3, OutputTokens: 1}}, Request{})
	if !o.Succeeded() {
		t.Fatal("expected success")
	}
	if o.Text() != "hi" || o.Result().TotalTokens() != 4 {
		t.Errorf("unexpected result: %+v", o.Result())
	}
	if o.Reason() != "" || o.Err() != nil {
		t.Error("success must carry no failure")
	}
}

func TestAttempt_Failure(t *testing.T) {
	o := Attempt(context.Background(), &stubCompleter{err: Fail(ReasonMalformed, nil)}, Request{})
	if o.Succeeded() {
		t.Fatal("expected failure")
	}
	if o.Reason() != ReasonMalformed {
		t.Errorf("Reason() = %q", o.Reason())
	}
	if o.Text() != "" {
		t.Errorf("Text() = %q", o.Text())
	}
}

func TestReasonForStatus(t *testing.T) {
	tests := map[int]Reason{
		429: ReasonRateLimited,
		402: ReasonQuota,
		500: ReasonTransport,
		503: ReasonTransport,
		401: ReasonTransport,
		400: ReasonUnknown,
		422: ReasonUnknown,
	}
	for code, want := range tests {
		if got := ReasonForStatus(code); got != want {
			t.Errorf("ReasonForStatus(%d) = %q, want %q", code, got, want)
		}
	}
}

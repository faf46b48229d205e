package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/kbassist/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	q, err := New("  python web ", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "python web" {
		t.Errorf("Text() = %q", q.Text())
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", q.Limit(), DefaultLimit)
	}
	if q.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
}

func TestNew_EmptyTextAllowed(t *testing.T) {
	q, err := New("", "Programming", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.IsEmpty() {
		t.Error("IsEmpty() = false")
	}
	if q.Category() != "Programming" {
		t.Errorf("Category() = %q", q.Category())
	}
}

func TestNew_LimitBounds(t *testing.T) {
	tests := []struct {
		limit   int
		wantErr bool
	}{
		{1, false},
		{MaxLimit, false},
		{MaxLimit + 1, true},
		{-1, true},
	}
	for _, tc := range tests {
		_, err := New("q", "", tc.limit)
		if (err != nil) != tc.wantErr {
			t.Errorf("limit=%d: err=%v, wantErr=%v", tc.limit, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("limit=%d: expected ErrInvalidInput, got %v", tc.limit, err)
		}
	}
}

func TestNew_TooLong(t *testing.T) {
	if _, err := New(strings.Repeat("a", MaxTextLength+1), "", 5); err == nil {
		t.Error("expected error for long text")
	}
	if _, err := New("q", strings.Repeat("c", MaxCategoryLength+1), 5); err == nil {
		t.Error("expected error for long category")
	}
}

package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailedOp(t *testing.T) {
	wrapped := fmt.Errorf("get token counter k: %w", &Error{Op: OpGet, Err: errors.New("conn reset")})

	op, ok := FailedOp(wrapped)
	if !ok || op != OpGet {
		t.Fatalf("FailedOp = %q, %v", op, ok)
	}
	if got := wrapped.Error(); got != "get token counter k: db GET: conn reset" {
		t.Errorf("message = %q", got)
	}

	if _, ok := FailedOp(ErrKeyNotFound); ok {
		t.Error("sentinel errors carry no operation")
	}
}

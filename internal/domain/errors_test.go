package domain

import (
	"errors"
	"testing"
)

func TestInvalidInputError_Is(t *testing.T) {
	err := NewInvalidInput("question", "is required")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected errors.Is(err, ErrInvalidInput)")
	}

	var ie *InvalidInputError
	if !errors.As(err, &ie) {
		t.Fatal("expected *InvalidInputError")
	}
	if ie.Field != "question" {
		t.Errorf("field: got %q", ie.Field)
	}
	if err.Error() != "invalid input: question: is required" {
		t.Errorf("message: got %q", err.Error())
	}
}

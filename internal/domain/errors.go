package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrArticleNotFound signals a missing article.
	ErrArticleNotFound = errors.New("article not found")
	// ErrInvalidInput signals a malformed request or value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable signals a document store failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrCompletionQuotaExceeded signals an exhausted completion token budget.
	ErrCompletionQuotaExceeded = errors.New("completion quota exceeded")
	// ErrCompletionUnavailable signals a text completion provider failure.
	ErrCompletionUnavailable = errors.New("completion provider error")
)

// InvalidInputError wraps ErrInvalidInput with the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// NewInvalidInput creates a validation error for a single field.
func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

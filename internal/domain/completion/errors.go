package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/kbassist/internal/domain"
)

// Reason classifies why a completion call failed.
type Reason string

// Failure reasons.
const (
	ReasonTransport   Reason = "transport"
	ReasonQuota       Reason = "quota_exceeded"
	ReasonRateLimited Reason = "rate_limited"
	ReasonMalformed   Reason = "malformed_response"
	ReasonCanceled    Reason = "canceled"
	ReasonUnknown     Reason = "unknown"
)

// Error is a classified provider failure. It matches domain.ErrCompletionUnavailable
// and the wrapped cause via errors.Is.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion failed (%s)", e.Reason)
	}
	return fmt.Sprintf("completion failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrCompletionUnavailable}
	}
	return []error{domain.ErrCompletionUnavailable, e.Err}
}

// Fail builds a classified completion error.
func Fail(reason Reason, err error) error {
	return &Error{Reason: reason, Err: err}
}

// ReasonOf extracts the failure reason from any error chain.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason
	}
	switch {
	case errors.Is(err, domain.ErrCompletionQuotaExceeded):
		return ReasonQuota
	case errors.Is(err, domain.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, domain.ErrCompletionUnavailable):
		return ReasonTransport
	}
	return ReasonUnknown
}

// ReasonForStatus classifies a provider HTTP status code.
func ReasonForStatus(code int) Reason {
	switch {
	case code == http.StatusTooManyRequests:
		return ReasonRateLimited
	case code == http.StatusPaymentRequired:
		return ReasonQuota
	case code >= http.StatusInternalServerError, code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ReasonTransport
	case code >= http.StatusBadRequest:
		return ReasonUnknown
	}
	return ReasonTransport
}

package completion

import "context"

// Outcome is the result of one completion attempt: exactly one of succeeded or failed.
type Outcome struct {
	result Result
	reason Reason
	err    error
}

// Attempt runs a single completion call and folds the error into the outcome.
func Attempt(ctx context.Context, c Completer, req Request) Outcome {
	res, err := c.Complete(ctx, req)
	if err != nil {
		return Outcome{reason: ReasonOf(err), err: err}
	}
	return Outcome{result: res}
}

// Succeeded reports whether the call produced text.
func (o Outcome) Succeeded() bool { return o.err == nil }

// Text returns the generated text (empty on failure).
func (o Outcome) Text() string { return o.result.Text }

// Result returns the full completion result (zero on failure).
func (o Outcome) Result() Result { return o.result }

// Reason returns the failure classification (empty on success).
func (o Outcome) Reason() Reason { return o.reason }

// Err returns the underlying failure (nil on success).
func (o Outcome) Err() error { return o.err }

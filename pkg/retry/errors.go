package retry

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

type RetryErrorCause string

const (
	ErrZeroAttempt       RetryErrorCause = "zero attempt"
	ErrExhaustedAttempts RetryErrorCause = "exhausted attempt"
	ErrCanceled          RetryErrorCause = "canceled"
)

type RetryError struct {
	Message   string
	Retryable bool
	Cause     RetryErrorCause
	// LastErr is the error returned by the final attempt, if any.
	LastErr failure.ClassifiedError
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry error: %s, %s", e.Cause, e.Message)
}

func (e *RetryError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RetryError) IsRetryable() bool {
	return e.Retryable
}

// Is allows errors.Is to match RetryError types
func (e *RetryError) Is(target error) bool {
	_, ok := target.(*RetryError)
	return ok
}

func (e *RetryError) Unwrap() error {
	if e.LastErr == nil {
		return nil
	}
	return e.LastErr
}

// IsExhausted reports whether err carries a RetryError caused by running
// out of attempts.
func IsExhausted(err error) bool {
	var retryErr *RetryError
	if errors.As(err, &retryErr) {
		return retryErr.Cause == ErrExhaustedAttempts
	}
	return false
}

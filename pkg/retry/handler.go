package retry

import (
	"context"
	"fmt"

	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/timeutil"
)

// Retry executes the provided function with retry logic.
// It will call fn up to MaxAttempts times. After every failed retryable
// attempt, including the last one, it waits
// BaseDelay + Increment*attempt. Only retryable errors will trigger a retry.
//
// fn receives the 1-based attempt number.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func(attempt int) (T, failure.ClassifiedError),
) Result[T] {
	var lastErr failure.ClassifiedError
	var zero T

	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			value: zero,
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: true,
			},
		}
	}

	sleeper := retryParam.sleeper()
	result := Result[T]{}

	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			result.err = canceled(attempt-1, err, lastErr)
			return result
		}

		value, err := fn(attempt)
		result.attempts = attempt

		if err == nil {
			result.value = value
			return result
		}

		lastErr = err

		if !isErrorRetryable(err) {
			result.err = err
			return result
		}

		delay := timeutil.LinearBackoffDelay(attempt, retryParam.BackoffParam)
		if retryParam.OnRetry != nil {
			retryParam.OnRetry(attempt, delay, err)
		}

		result.totalDelay += delay
		if sleepErr := sleeper.Sleep(ctx, delay); sleepErr != nil {
			result.err = canceled(attempt, sleepErr, lastErr)
			return result
		}
	}

	result.value = zero
	result.err = &RetryError{
		Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
		Cause:     ErrExhaustedAttempts,
		Retryable: true, // This is recoverable at scheduler level
		LastErr:   lastErr,
	}
	return result
}

func canceled(attempts int, ctxErr error, lastErr failure.ClassifiedError) *RetryError {
	return &RetryError{
		Message:   fmt.Sprintf("stopped after %d attempts: %v", attempts, ctxErr),
		Cause:     ErrCanceled,
		Retryable: false,
		LastErr:   lastErr,
	}
}

// isErrorRetryable checks if an error should be retried.
// Errors exposing IsRetryable decide for themselves; otherwise the
// severity decides.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	return err.Severity() != failure.SeverityFatal
}

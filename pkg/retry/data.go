package retry

import (
	"time"

	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
type RetryParam struct {
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
	// Sleeper performs the wait between attempts. Nil means a real timer.
	Sleeper timeutil.Sleeper
	// OnRetry, when set, is called after every failed retryable attempt,
	// before the wait.
	OnRetry func(attempt int, delay time.Duration, err failure.ClassifiedError)
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(
	maxAttempts int,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}

// WithSleeper returns a copy of the param using the given sleeper.
func (p RetryParam) WithSleeper(sleeper timeutil.Sleeper) RetryParam {
	p.Sleeper = sleeper
	return p
}

// WithOnRetry returns a copy of the param with the retry observer set.
func (p RetryParam) WithOnRetry(fn func(attempt int, delay time.Duration, err failure.ClassifiedError)) RetryParam {
	p.OnRetry = fn
	return p
}

func (p RetryParam) sleeper() timeutil.Sleeper {
	if p.Sleeper == nil {
		return timeutil.ContextSleeper{}
	}
	return p.Sleeper
}

// Result is the outcome of a Retry call.
type Result[T any] struct {
	value      T
	err        failure.ClassifiedError
	attempts   int
	totalDelay time.Duration
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() failure.ClassifiedError {
	return r.err
}

// Attempts is the number of times the function was invoked.
func (r Result[T]) Attempts() int {
	return r.attempts
}

// TotalDelay is the summed backoff requested between attempts.
func (r Result[T]) TotalDelay() time.Duration {
	return r.totalDelay
}

func (r Result[T]) IsFailure() bool {
	return r.err != nil
}

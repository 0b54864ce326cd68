package timeutil

import "time"

// Linear backoff parameters
// example:
//
//	baseDelay := 3 * time.Second // fixed part of every wait
//	increment := 5 * time.Second // added once per attempt number
//
// attempt 1 waits 8s, attempt 2 waits 13s, attempt 3 waits 18s, ...
type BackoffParam struct {
	baseDelay time.Duration
	increment time.Duration
}

func NewBackoffParam(
	baseDelay time.Duration,
	increment time.Duration,
) BackoffParam {
	return BackoffParam{
		baseDelay: baseDelay,
		increment: increment,
	}
}

func (b *BackoffParam) BaseDelay() time.Duration {
	return b.baseDelay
}

func (b *BackoffParam) Increment() time.Duration {
	return b.increment
}

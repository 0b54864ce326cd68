package timeutil

import (
	"context"
	"sync"
	"time"
)

// LinearBackoffDelay returns the wait that follows a failed attempt:
// baseDelay + increment*attempt. Attempts below 1 are treated as 1.
func LinearBackoffDelay(attempt int, backoffParam BackoffParam) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return backoffParam.baseDelay + backoffParam.increment*time.Duration(attempt)
}

// TotalLinearBackoff is the sum of LinearBackoffDelay over attempts 1..attempts.
func TotalLinearBackoff(attempts int, backoffParam BackoffParam) time.Duration {
	var total time.Duration
	for attempt := 1; attempt <= attempts; attempt++ {
		total += LinearBackoffDelay(attempt, backoffParam)
	}
	return total
}

// Sleeper blocks for a duration. Implementations must return early with
// ctx.Err() when the context is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ContextSleeper sleeps on a real timer.
type ContextSleeper struct{}

func (ContextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordingSleeper never blocks; it remembers every requested duration.
// Safe for concurrent use.
type RecordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (r *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slept = append(r.slept, d)
	return nil
}

func (r *RecordingSleeper) Durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.slept))
	copy(out, r.slept)
	return out
}

func (r *RecordingSleeper) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.slept {
		total += d
	}
	return total
}

// Clock abstracts time.Now so crawl timestamps can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (f FixedClock) Now() time.Time {
	return f.At
}

package pagination_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/pagination"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/retry"
	"github.com/stretchr/testify/mock"
)

// scraperMock is a testify mock for the PageScraper
type scraperMock struct {
	mock.Mock
}

func (s *scraperMock) ScrapePage(ctx context.Context, task pagination.PageTask) (pagination.PageOutcome, failure.ClassifiedError) {
	args := s.Called(ctx, task)
	outcome := args.Get(0).(pagination.PageOutcome)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return outcome, err
}

// funcScraper runs fn for every page and remembers which pages were asked
// for. Safe for concurrent use.
type funcScraper struct {
	mu       sync.Mutex
	calls    []int
	inFlight int
	peak     int
	fn       func(ctx context.Context, task pagination.PageTask) (pagination.PageOutcome, failure.ClassifiedError)
}

func (f *funcScraper) ScrapePage(ctx context.Context, task pagination.PageTask) (pagination.PageOutcome, failure.ClassifiedError) {
	f.mu.Lock()
	f.calls = append(f.calls, task.PageNumber)
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	return f.fn(ctx, task)
}

func (f *funcScraper) pagesCalled() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int(nil), f.calls...)
	sort.Ints(out)
	return out
}

func (f *funcScraper) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

// reviewsForPage builds n reviews whose ids are unique to the page.
func reviewsForPage(page int, n int) record.Collection {
	c := record.NewCollection()
	for i := 1; i <= n; i++ {
		c.Add(record.Review{Name: fmt.Sprintf("R-p%02d-%02d", page, i), Title: fmt.Sprintf("review %d on page %d", i, page)})
	}
	return c
}

func recordsOutcome(task pagination.PageTask, reviews record.Collection) pagination.PageOutcome {
	return pagination.PageOutcome{Task: task, Records: reviews, Status: pagination.PageRecords}
}

func emptyOutcome(task pagination.PageTask) pagination.PageOutcome {
	return pagination.PageOutcome{Task: task, Records: record.NewCollection(), Status: pagination.PageEmpty}
}

func exhaustedOutcome(task pagination.PageTask) pagination.PageOutcome {
	return pagination.PageOutcome{
		Task:    task,
		Records: record.NewCollection(),
		Status:  pagination.PageExhausted,
		Err:     &retry.RetryError{Cause: retry.ErrExhaustedAttempts, Retryable: true},
	}
}

// pagedSource serves a fixed number of reviews, pageSize per page, and an
// empty page after the last one.
func pagedSource(total int, pageSize int) func(context.Context, pagination.PageTask) (pagination.PageOutcome, failure.ClassifiedError) {
	return func(_ context.Context, task pagination.PageTask) (pagination.PageOutcome, failure.ClassifiedError) {
		start := (task.PageNumber - 1) * pageSize
		if start >= total {
			return emptyOutcome(task), nil
		}
		n := pageSize
		if start+n > total {
			n = total - start
		}
		return recordsOutcome(task, reviewsForPage(task.PageNumber, n)), nil
	}
}

type fatalErr struct{}

func (fatalErr) Error() string              { return "fatal page error" }
func (fatalErr) Severity() failure.Severity { return failure.SeverityFatal }

// spySink records merges and errors for assertions.
type spySink struct {
	metadata.NoopSink
	mu         sync.Mutex
	errors     []metadata.ErrorCause
	collisions []string
	merged     int
}

func (s *spySink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, cause)
}

func (s *spySink) RecordMerge(resourceID string, reviews int, collisions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = reviews
	s.collisions = append(s.collisions, collisions...)
}

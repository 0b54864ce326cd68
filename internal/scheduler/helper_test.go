package scheduler_test

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/pagination"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/internal/storage"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/stretchr/testify/mock"
)

type acquirerMock struct {
	mock.Mock
}

func (a *acquirerMock) Acquire(ctx context.Context, resourceID string) (record.Product, bool, failure.ClassifiedError) {
	args := a.Called(ctx, resourceID)
	var err failure.ClassifiedError
	if args.Get(2) != nil {
		err = args.Get(2).(failure.ClassifiedError)
	}
	return args.Get(0).(record.Product), args.Bool(1), err
}

type sequentialMock struct {
	mock.Mock
}

func (s *sequentialMock) PaginateAll(ctx context.Context, resourceID string) (pagination.SequentialResult, failure.ClassifiedError) {
	args := s.Called(ctx, resourceID)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.Get(0).(pagination.SequentialResult), err
}

type boundedMock struct {
	mock.Mock
}

func (b *boundedMock) PaginateBounded(ctx context.Context, resourceID string, countHint int) (pagination.AggregateResult, failure.ClassifiedError) {
	args := b.Called(ctx, resourceID, countHint)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.Get(0).(pagination.AggregateResult), err
}

type storageMock struct {
	mock.Mock
}

func (s *storageMock) Write(outputDir string, product record.Product, reviews record.Collection) ([]storage.WriteResult, failure.ClassifiedError) {
	args := s.Called(outputDir, product, reviews)
	var results []storage.WriteResult
	if args.Get(0) != nil {
		results = args.Get(0).([]storage.WriteResult)
	}
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return results, err
}

// schedulerSpy records products, errors and the final stats.
type schedulerSpy struct {
	metadata.NoopSink
	mu         sync.Mutex
	products   map[string]metadata.ProductOutcome
	errors     []metadata.ErrorCause
	finalStats []metadata.CrawlStats
}

func newSchedulerSpy() *schedulerSpy {
	return &schedulerSpy{products: map[string]metadata.ProductOutcome{}}
}

func (s *schedulerSpy) RecordProduct(resourceID string, outcome metadata.ProductOutcome, reviews int, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[resourceID] = outcome
}

func (s *schedulerSpy) RecordError(
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

func (s *schedulerSpy) RecordFinalCrawlStats(stats metadata.CrawlStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalStats = append(s.finalStats, stats)
}

type fatalErr struct{ msg string }

func (f *fatalErr) Error() string               { return f.msg }
func (f *fatalErr) Severity() failure.Severity { return failure.SeverityFatal }

func reviews(ids ...string) record.Collection {
	c := record.NewCollection()
	for _, id := range ids {
		c.Add(record.Review{Name: id, Title: "t " + id})
	}
	return c
}

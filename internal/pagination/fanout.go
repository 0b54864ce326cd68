package pagination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"golang.org/x/sync/errgroup"
)

/*
Responsibilities
- Size the review fan-out from the product's count hint, capped at maxPages
- Run page tasks 1..pageCount on a fixed worker pool
- Merge page collections on a single collector goroutine
- Bound the whole join by the aggregate timeout

Concurrency model
- All tasks are queued up front on a closed channel
- min(pageCount, maxPoolSize) workers drain the queue; they share nothing
  else and send outcomes over a buffered channel, so they never block
- Only the collector (the calling goroutine) touches the merged collection
- A failing or panicking task is isolated: its page is listed in
  FailedPages and the remaining tasks still run
- When the deadline or the caller's context ends the join, in-flight tasks
  are abandoned through context cancellation and the result is Partial
*/
type FanOutAggregator struct {
	metadataSink     metadata.MetadataSink
	scraper          PageScraper
	pageSize         int
	maxPoolSize      int
	aggregateTimeout time.Duration
	maxPages         int
}

func NewFanOutAggregator(
	metadataSink metadata.MetadataSink,
	scraper PageScraper,
	pageSize int,
	maxPoolSize int,
	aggregateTimeout time.Duration,
	maxPages int,
) FanOutAggregator {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	if maxPoolSize < 1 {
		maxPoolSize = DefaultMaxPoolSize
	}
	if aggregateTimeout <= 0 {
		aggregateTimeout = DefaultAggregateTimeout
	}
	return FanOutAggregator{
		metadataSink:     metadataSink,
		scraper:          scraper,
		pageSize:         pageSize,
		maxPoolSize:      maxPoolSize,
		aggregateTimeout: aggregateTimeout,
		maxPages:         maxPages,
	}
}

type taskResult struct {
	outcome PageOutcome
	err     failure.ClassifiedError
	// completed is false when the task returned after the join had ended.
	completed bool
}

func (a *FanOutAggregator) PaginateBounded(
	ctx context.Context,
	resourceID string,
	countHint int,
) (AggregateResult, failure.ClassifiedError) {
	result := AggregateResult{
		Reviews: record.NewCollection(),
		Status:  AggregateComplete,
	}

	if a.pageSize < 1 {
		err := &PaginationError{
			Message:   fmt.Sprintf("page size must be positive, got %d", a.pageSize),
			Retryable: false,
			Cause:     ErrCauseInvalidPageSize,
		}
		a.recordError(resourceID, err, nil)
		return result, err
	}

	pageCount := PageCount(countHint, a.pageSize)
	if pageCount > a.maxPages {
		a.recordError(resourceID, &PaginationError{
			Message:   fmt.Sprintf("count hint %d asks for %d pages, capped at %d", countHint, pageCount, a.maxPages),
			Retryable: true,
			Cause:     ErrCausePageCountClamped,
		}, nil)
		pageCount = a.maxPages
		result.Clamped = true
	}
	result.PageCount = pageCount
	if pageCount == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.aggregateTimeout)
	defer cancel()

	tasks := make(chan PageTask, pageCount)
	for page := 1; page <= pageCount; page++ {
		tasks <- PageTask{ResourceID: resourceID, PageNumber: page}
	}
	close(tasks)

	outcomes := make(chan taskResult, pageCount)
	var workers errgroup.Group
	for i := 0; i < PoolSize(pageCount, a.maxPoolSize); i++ {
		workers.Go(func() error {
			for task := range tasks {
				if ctx.Err() != nil {
					return nil
				}
				outcomes <- a.runTask(ctx, task)
			}
			return nil
		})
	}
	go func() {
		// workers never return an error
		_ = workers.Wait()
		close(outcomes)
	}()

	pending := make(map[int]struct{}, pageCount)
	for page := 1; page <= pageCount; page++ {
		pending[page] = struct{}{}
	}

collect:
	for {
		select {
		case <-ctx.Done():
			break collect
		case tr, ok := <-outcomes:
			if !ok {
				break collect
			}
			a.accept(&result, pending, tr)
		}
	}

	// outcomes buffered before the join ended still count
	for drained := false; !drained; {
		select {
		case tr, ok := <-outcomes:
			if !ok {
				drained = true
				continue
			}
			a.accept(&result, pending, tr)
		default:
			drained = true
		}
	}

	if len(pending) > 0 {
		result.Status = AggregatePartial
		for page := range pending {
			result.MissingPages = append(result.MissingPages, page)
		}
		a.recordError(resourceID, a.cutShortError(ctx, len(pending), pageCount), nil)
	}

	sort.Ints(result.MissingPages)
	sort.Ints(result.FailedPages)
	sort.Ints(result.ExhaustedPages)
	sort.Strings(result.Collisions)

	a.metadataSink.RecordMerge(resourceID, result.Reviews.Len(), result.Collisions)
	return result, nil
}

// accept drops outcomes of tasks that returned after the join ended; their
// pages stay pending and are reported missing.
func (a *FanOutAggregator) accept(result *AggregateResult, pending map[int]struct{}, tr taskResult) {
	if !tr.completed {
		return
	}
	delete(pending, tr.outcome.Task.PageNumber)
	a.collect(result, tr)
}

// collect folds one task result into the aggregate. Collector only.
func (a *FanOutAggregator) collect(result *AggregateResult, tr taskResult) {
	page := tr.outcome.Task.PageNumber
	if tr.err != nil {
		result.FailedPages = append(result.FailedPages, page)
		a.recordError(tr.outcome.Task.ResourceID, tr.err, &page)
		return
	}

	switch tr.outcome.Status {
	case PageRecords:
		result.Collisions = append(result.Collisions, result.Reviews.Merge(tr.outcome.Records)...)
	case PageExhausted:
		result.ExhaustedPages = append(result.ExhaustedPages, page)
	case PageFailed:
		result.FailedPages = append(result.FailedPages, page)
	}
}

func (a *FanOutAggregator) runTask(ctx context.Context, task PageTask) (tr taskResult) {
	defer func() {
		if r := recover(); r != nil {
			tr = taskResult{
				outcome: PageOutcome{Task: task, Records: record.NewCollection(), Status: PageFailed},
				err: &PaginationError{
					Message:   fmt.Sprintf("page %d: %v", task.PageNumber, r),
					Retryable: true,
					Cause:     ErrCauseTaskPanic,
				},
				completed: ctx.Err() == nil,
			}
		}
	}()

	outcome, err := a.scraper.ScrapePage(ctx, task)
	outcome.Task = task
	if outcome.Records == nil {
		outcome.Records = record.NewCollection()
	}
	return taskResult{outcome: outcome, err: err, completed: ctx.Err() == nil}
}

func (a *FanOutAggregator) cutShortError(ctx context.Context, missing int, pageCount int) *PaginationError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &PaginationError{
			Message:   fmt.Sprintf("%d of %d pages missing after %s", missing, pageCount, a.aggregateTimeout),
			Retryable: true,
			Cause:     ErrCauseAggregateTimeout,
		}
	}
	return &PaginationError{
		Message:   fmt.Sprintf("%d of %d pages missing: %v", missing, pageCount, ctx.Err()),
		Retryable: true,
		Cause:     ErrCauseCanceled,
	}
}

func (a *FanOutAggregator) recordError(resourceID string, err failure.ClassifiedError, page *int) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrResourceID, resourceID),
	}
	if page != nil {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrPage, strconv.Itoa(*page)))
	}

	cause := metadata.CauseUnknown
	var paginationErr *PaginationError
	if errors.As(err, &paginationErr) {
		cause = mapPaginationErrorToMetadataCause(paginationErr)
	}

	a.metadataSink.RecordError(
		time.Now(),
		"pagination",
		"FanOutAggregator.PaginateBounded",
		cause,
		err.Error(),
		attrs,
	)
}

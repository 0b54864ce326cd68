package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/review-crawler/internal/config"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/pagination"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/internal/scheduler"
	"github.com/rohmanhakim/review-crawler/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deps struct {
	acquirer   *acquirerMock
	sequential *sequentialMock
	bounded    *boundedMock
	storage    *storageMock
	spy        *schedulerSpy
}

func newDeps() deps {
	return deps{
		acquirer:   &acquirerMock{},
		sequential: &sequentialMock{},
		bounded:    &boundedMock{},
		storage:    &storageMock{},
		spy:        newSchedulerSpy(),
	}
}

func (d deps) scheduler(t *testing.T, cfg *config.Config) *scheduler.Scheduler {
	t.Helper()
	built, err := cfg.Build()
	require.NoError(t, err)
	return scheduler.NewSchedulerWithDeps(built, d.spy, d.spy, d.acquirer, d.sequential, d.bounded, d.storage)
}

func (d deps) assertExpectations(t *testing.T) {
	d.acquirer.AssertExpectations(t)
	d.sequential.AssertExpectations(t)
	d.bounded.AssertExpectations(t)
	d.storage.AssertExpectations(t)
}

func TestCrawlProduct_SequentialMode(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault("B00JMLCMKY").WithOutputDir("out"))

	product := record.Product{ASIN: "B00JMLCMKY", Name: "Widget", ModelNum: "WX-1", ReviewCount: 23}
	d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").Return(product, true, nil)
	d.sequential.On("PaginateAll", mock.Anything, "B00JMLCMKY").Return(pagination.SequentialResult{
		Reviews:      reviews("R1", "R2"),
		PagesFetched: 2,
		StopReason:   pagination.StopEmptyPage,
		StopPage:     2,
	}, nil)
	d.storage.On("Write", "out", product, mock.AnythingOfType("record.Collection")).
		Return([]storage.WriteResult{storage.NewWriteResult("out/B00JMLCMKY/product.txt", "blake3:x")}, nil)

	crawl, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY"})

	require.Nil(t, err)
	assert.True(t, crawl.Found)
	assert.Equal(t, scheduler.ModeSequential, crawl.Mode)
	assert.Equal(t, pagination.StopEmptyPage, crawl.StopReason)
	assert.Equal(t, 2, crawl.PagesFetched)
	assert.Equal(t, []string{"R1", "R2"}, crawl.Reviews.IDs())
	assert.Len(t, crawl.WriteResults, 1)

	// model number copied from the product
	for _, r := range crawl.Reviews {
		assert.Equal(t, "WX-1", r.ModelNum)
	}
	assert.Equal(t, metadata.ProductCrawled, d.spy.products["B00JMLCMKY"])
	d.bounded.AssertNotCalled(t, "PaginateBounded", mock.Anything, mock.Anything, mock.Anything)
	d.assertExpectations(t)
}

func TestCrawlProduct_ConcurrentModeUsesCountHint(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault("B00JMLCMKY").WithConcurrent(true))

	product := record.Product{ASIN: "B00JMLCMKY", Name: "Widget", ReviewCount: 23}
	d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").Return(product, true, nil)
	d.bounded.On("PaginateBounded", mock.Anything, "B00JMLCMKY", 23).Return(pagination.AggregateResult{
		Reviews:   reviews("R1", "R2", "R3"),
		Status:    pagination.AggregateComplete,
		PageCount: 3,
	}, nil)
	d.storage.On("Write", mock.Anything, product, mock.Anything).Return(nil, nil)

	crawl, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY"})

	require.Nil(t, err)
	assert.Equal(t, scheduler.ModeConcurrent, crawl.Mode)
	assert.Equal(t, pagination.AggregateComplete, crawl.Status)
	assert.Equal(t, 3, crawl.PagesFetched)
	assert.Equal(t, 3, crawl.Reviews.Len())
	d.sequential.AssertNotCalled(t, "PaginateAll", mock.Anything, mock.Anything)
	d.assertExpectations(t)
}

func TestCrawlProduct_PartialAggregateIsStillWritten(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault("B00JMLCMKY").WithConcurrent(true))

	product := record.Product{ASIN: "B00JMLCMKY", ReviewCount: 40}
	d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").Return(product, true, nil)
	d.bounded.On("PaginateBounded", mock.Anything, "B00JMLCMKY", 40).Return(pagination.AggregateResult{
		Reviews:        reviews("R1"),
		Status:         pagination.AggregatePartial,
		PageCount:      4,
		MissingPages:   []int{3, 4},
		ExhaustedPages: []int{2},
	}, nil)
	d.storage.On("Write", mock.Anything, product, mock.Anything).Return(nil, nil)

	crawl, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY"})

	require.Nil(t, err)
	assert.Equal(t, pagination.AggregatePartial, crawl.Status)
	assert.Equal(t, []int{3, 4}, crawl.MissingPages)
	assert.Equal(t, []int{2}, crawl.ExhaustedPages)
	assert.Equal(t, 2, crawl.PagesFetched)
	d.assertExpectations(t)
}

func TestCrawlProduct_AbsentProductSkipsPagination(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault("B00GONE000"))

	d.acquirer.On("Acquire", mock.Anything, "B00GONE000").Return(record.Product{}, false, nil)

	crawl, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00GONE000"})

	require.Nil(t, err)
	assert.False(t, crawl.Found)
	assert.Equal(t, 0, crawl.Reviews.Len())
	assert.Equal(t, metadata.ProductAbsent, d.spy.products["B00GONE000"])
	d.sequential.AssertNotCalled(t, "PaginateAll", mock.Anything, mock.Anything)
	d.storage.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestCrawlProduct_TaskNameFillsMissingProductName(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault("B00JMLCMKY"))

	d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").Return(record.Product{ASIN: "B00JMLCMKY"}, true, nil)
	d.sequential.On("PaginateAll", mock.Anything, "B00JMLCMKY").
		Return(pagination.SequentialResult{Reviews: record.NewCollection(), PagesFetched: 1}, nil)
	d.storage.On("Write", mock.Anything, record.Product{ASIN: "B00JMLCMKY", Name: "Widget"}, mock.Anything).
		Return(nil, nil)

	crawl, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY", Name: "Widget"})

	require.Nil(t, err)
	assert.Equal(t, "Widget", crawl.Product.Name)
	d.assertExpectations(t)
}

func TestCrawlProduct_FatalErrorsPropagate(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		d := newDeps()
		s := d.scheduler(t, config.WithDefault("B00JMLCMKY"))
		d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").
			Return(record.Product{}, false, &fatalErr{"bad request"})

		_, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY"})

		require.NotNil(t, err)
		assert.Equal(t, metadata.ProductFailed, d.spy.products["B00JMLCMKY"])
	})

	t.Run("pagination", func(t *testing.T) {
		d := newDeps()
		s := d.scheduler(t, config.WithDefault("B00JMLCMKY"))
		d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").
			Return(record.Product{ASIN: "B00JMLCMKY"}, true, nil)
		d.sequential.On("PaginateAll", mock.Anything, "B00JMLCMKY").Return(pagination.SequentialResult{
			Reviews:      reviews("R1"),
			PagesFetched: 2,
		}, &fatalErr{"canceled"})

		crawl, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY"})

		require.NotNil(t, err)
		// what was merged before the failure is kept
		assert.Equal(t, 1, crawl.Reviews.Len())
		d.storage.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage", func(t *testing.T) {
		d := newDeps()
		s := d.scheduler(t, config.WithDefault("B00JMLCMKY"))
		d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").
			Return(record.Product{ASIN: "B00JMLCMKY"}, true, nil)
		d.sequential.On("PaginateAll", mock.Anything, "B00JMLCMKY").
			Return(pagination.SequentialResult{Reviews: record.NewCollection()}, nil)
		d.storage.On("Write", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &storage.StorageError{Message: "read-only", Cause: storage.ErrCauseWriteFailure})

		_, err := s.CrawlProduct(context.Background(), scheduler.Task{ASIN: "B00JMLCMKY"})

		require.NotNil(t, err)
		assert.Equal(t, metadata.ProductFailed, d.spy.products["B00JMLCMKY"])
	})
}

func TestExecuteCrawling_SingleProductRecordsStatsOnce(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault("B00JMLCMKY"))

	d.acquirer.On("Acquire", mock.Anything, "B00JMLCMKY").
		Return(record.Product{ASIN: "B00JMLCMKY"}, true, nil)
	d.sequential.On("PaginateAll", mock.Anything, "B00JMLCMKY").Return(pagination.SequentialResult{
		Reviews:      reviews("R1", "R2", "R3"),
		PagesFetched: 2,
		StopReason:   pagination.StopFetchExhausted,
	}, nil)
	d.storage.On("Write", mock.Anything, mock.Anything, mock.Anything).Return([]storage.WriteResult{
		storage.NewWriteResult("a", "h1"),
		storage.NewWriteResult("b", "h2"),
	}, nil)

	execution, err := s.ExecuteCrawling(context.Background())

	require.NoError(t, err)
	require.Len(t, execution.Crawls, 1)
	assert.Greater(t, execution.Duration.Nanoseconds(), int64(0))

	require.Len(t, d.spy.finalStats, 1)
	stats := d.spy.finalStats[0]
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 3, stats.TotalReviews)
	assert.Equal(t, 2, stats.TotalPages)
	assert.Equal(t, 2, stats.TotalArtifacts)
	// exhausted stop counts as an error
	assert.Equal(t, 1, stats.TotalErrors)
}

func writeTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExecuteCrawling_Batch(t *testing.T) {
	path := writeTaskFile(t, "B00AAAAAAA::First\n\nbad id::Broken\n# comment\nB00BBBBBBB::Second\n")

	d := newDeps()
	s := d.scheduler(t, config.WithDefault(path).WithBatch(true))

	d.acquirer.On("Acquire", mock.Anything, "B00AAAAAAA").
		Return(record.Product{ASIN: "B00AAAAAAA"}, true, nil)
	d.acquirer.On("Acquire", mock.Anything, "B00BBBBBBB").
		Return(record.Product{}, false, nil)
	d.sequential.On("PaginateAll", mock.Anything, "B00AAAAAAA").
		Return(pagination.SequentialResult{Reviews: reviews("R1"), PagesFetched: 2}, nil)
	d.storage.On("Write", mock.Anything, record.Product{ASIN: "B00AAAAAAA", Name: "First"}, mock.Anything).
		Return(nil, nil)

	execution, err := s.ExecuteCrawling(context.Background())

	require.NoError(t, err)
	require.Len(t, execution.Crawls, 2)
	assert.True(t, execution.Crawls[0].Found)
	assert.False(t, execution.Crawls[1].Found)
	assert.Equal(t, []int{3}, execution.SkippedLines)

	assert.Equal(t, metadata.ProductCrawled, d.spy.products["B00AAAAAAA"])
	assert.Equal(t, metadata.ProductAbsent, d.spy.products["B00BBBBBBB"])
	assert.Contains(t, d.spy.errors, metadata.CauseContentInvalid)

	require.Len(t, d.spy.finalStats, 1)
	assert.Equal(t, 1, d.spy.finalStats[0].TotalProducts)
	// one invalid line, one absent product
	assert.Equal(t, 2, d.spy.finalStats[0].TotalErrors)
	d.assertExpectations(t)
}

func TestExecuteCrawling_BatchFatalErrorStopsRun(t *testing.T) {
	path := writeTaskFile(t, "B00AAAAAAA\nB00BBBBBBB\n")

	d := newDeps()
	s := d.scheduler(t, config.WithDefault(path).WithBatch(true))

	d.acquirer.On("Acquire", mock.Anything, "B00AAAAAAA").
		Return(record.Product{}, false, &fatalErr{"boom"})

	execution, err := s.ExecuteCrawling(context.Background())

	require.Error(t, err)
	assert.Len(t, execution.Crawls, 1)
	d.acquirer.AssertNotCalled(t, "Acquire", mock.Anything, "B00BBBBBBB")
	assert.Len(t, d.spy.finalStats, 1)
}

func TestExecuteCrawling_BatchCanceledContext(t *testing.T) {
	path := writeTaskFile(t, "B00AAAAAAA\n")

	d := newDeps()
	s := d.scheduler(t, config.WithDefault(path).WithBatch(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ExecuteCrawling(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	d.acquirer.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
}

func TestExecuteCrawling_UnreadableTaskList(t *testing.T) {
	d := newDeps()
	s := d.scheduler(t, config.WithDefault(filepath.Join(t.TempDir(), "missing.txt")).WithBatch(true))

	_, err := s.ExecuteCrawling(context.Background())

	assert.True(t, errors.Is(err, scheduler.ErrTaskListUnreadable))
	assert.Len(t, d.spy.finalStats, 1)
}

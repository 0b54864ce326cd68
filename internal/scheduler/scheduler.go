package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/config"
	"github.com/rohmanhakim/review-crawler/internal/extractor"
	"github.com/rohmanhakim/review-crawler/internal/fetcher"
	"github.com/rohmanhakim/review-crawler/internal/locator"
	"github.com/rohmanhakim/review-crawler/internal/mdconvert"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/pagination"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/internal/storage"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/timeutil"
)

/*
 Scheduler is the sole control-plane authority of the crawl.

 For every product it:
 - acquires the primary record (one fetch + one extraction)
 - branches on the concurrency mode: the sequential paginator walks pages
   until an empty one, the fan-out aggregator sizes its work from the
   product's review count
 - copies the product model number onto the reviews
 - hands product and reviews to the storage sink

 Pipeline stages detect and classify failure; only the scheduler decides
 whether to continue or abort. An absent product is a normal outcome and
 the batch continues. Fatal errors abort the run.

 Metadata emission is observational only and MUST NOT influence
 scheduling, retries, or crawl termination.
*/

type SequentialDriver interface {
	PaginateAll(ctx context.Context, resourceID string) (pagination.SequentialResult, failure.ClassifiedError)
}

type BoundedDriver interface {
	PaginateBounded(ctx context.Context, resourceID string, countHint int) (pagination.AggregateResult, failure.ClassifiedError)
}

type Scheduler struct {
	cfg            config.Config
	metadataSink   metadata.MetadataSink
	crawlFinalizer metadata.CrawlFinalizer
	acquirer       Acquirer
	sequential     SequentialDriver
	fanOut         BoundedDriver
	storageSink    storage.Sink
	totalErrors    int
}

// NewScheduler wires the production pipeline from cfg.
func NewScheduler(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	crawlFinalizer metadata.CrawlFinalizer,
) (*Scheduler, error) {
	format, err := storage.ParseFormat(cfg.ReportFormat())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
	}

	loc := locator.New(cfg.BaseURL())
	retryParam := cfg.RetryParam()
	htmlFetcher := fetcher.NewHtmlFetcher(metadataSink, cfg.RequestTimeout())
	productExtractor := extractor.NewAmazonProductExtractor(metadataSink, timeutil.SystemClock{})
	reviewExtractor := extractor.NewAmazonReviewExtractor(metadataSink, loc)

	acquirer := NewProductAcquirer(
		metadataSink,
		&htmlFetcher,
		&productExtractor,
		loc,
		retryParam,
		cfg.UserAgent(),
	)
	scraper := pagination.NewReviewPageScraper(
		metadataSink,
		&htmlFetcher,
		&reviewExtractor,
		loc,
		retryParam,
		cfg.UserAgent(),
	)
	sequential := pagination.NewSequentialPaginator(metadataSink, scraper, cfg.MaxPages())
	fanOut := pagination.NewFanOutAggregator(
		metadataSink,
		scraper,
		cfg.PageSize(),
		cfg.MaxPoolSize(),
		cfg.AggregateTimeout(),
		cfg.MaxPages(),
	)
	storageSink := storage.NewLocalSink(
		metadataSink,
		mdconvert.NewReviewConverter(metadataSink),
		format,
		cfg.DryRun(),
	)

	return NewSchedulerWithDeps(
		cfg,
		metadataSink,
		crawlFinalizer,
		acquirer,
		&sequential,
		&fanOut,
		storageSink,
	), nil
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies for testing.
func NewSchedulerWithDeps(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	crawlFinalizer metadata.CrawlFinalizer,
	acquirer Acquirer,
	sequential SequentialDriver,
	fanOut BoundedDriver,
	storageSink storage.Sink,
) *Scheduler {
	return &Scheduler{
		cfg:            cfg,
		metadataSink:   metadataSink,
		crawlFinalizer: crawlFinalizer,
		acquirer:       acquirer,
		sequential:     sequential,
		fanOut:         fanOut,
		storageSink:    storageSink,
	}
}

// ExecuteCrawling runs the configured target: a single product, or every
// task of a task file in batch mode. Final stats are recorded exactly once,
// whatever the outcome.
func (s *Scheduler) ExecuteCrawling(ctx context.Context) (execution CrawlingExecution, err error) {
	crawlStartTime := time.Now()
	s.totalErrors = 0

	defer func() {
		execution.Duration = time.Since(crawlStartTime)
		s.crawlFinalizer.RecordFinalCrawlStats(s.stats(execution))
	}()

	if s.cfg.Batch() {
		return s.CrawlBatch(ctx, s.cfg.Target())
	}

	crawl, crawlErr := s.CrawlProduct(ctx, Task{ASIN: s.cfg.Target()})
	execution.Crawls = append(execution.Crawls, crawl)
	if crawlErr != nil {
		return execution, crawlErr
	}
	return execution, nil
}

// CrawlBatch crawls the tasks of the file at path one after another.
// Lines without a valid id are skipped. An unreadable file is
// ErrTaskListUnreadable.
func (s *Scheduler) CrawlBatch(ctx context.Context, path string) (CrawlingExecution, error) {
	var execution CrawlingExecution

	file, err := os.Open(path)
	if err != nil {
		return execution, fmt.Errorf("%w: %s", ErrTaskListUnreadable, err.Error())
	}
	defer file.Close()

	tasks, invalid, err := ParseTasks(file, s.cfg.StrictID())
	if err != nil {
		return execution, fmt.Errorf("%w: %s", ErrTaskListUnreadable, err.Error())
	}
	for _, line := range invalid {
		s.totalErrors++
		s.metadataSink.RecordError(
			time.Now(),
			"scheduler",
			"Scheduler.CrawlBatch",
			metadata.CauseContentInvalid,
			line.Err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrField, fmt.Sprintf("%s:%d", path, line.Number)),
			},
		)
		execution.SkippedLines = append(execution.SkippedLines, line.Number)
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return execution, ctx.Err()
		}
		crawl, err := s.CrawlProduct(ctx, task)
		execution.Crawls = append(execution.Crawls, crawl)
		if err != nil {
			return execution, err
		}
	}
	return execution, nil
}

// CrawlProduct acquires one product and its reviews and writes them.
// An absent product returns Found false and no error.
func (s *Scheduler) CrawlProduct(ctx context.Context, task Task) (ProductCrawl, failure.ClassifiedError) {
	startTime := time.Now()
	crawl := ProductCrawl{
		Product: record.Product{ASIN: task.ASIN, Name: task.Name},
		Reviews: record.NewCollection(),
		Mode:    ModeSequential,
	}
	if s.cfg.Concurrent() {
		crawl.Mode = ModeConcurrent
	}

	product, found, err := s.acquirer.Acquire(ctx, task.ASIN)
	if err != nil {
		return s.finishProduct(task.ASIN, crawl, startTime, err)
	}
	if !found {
		s.totalErrors++
		crawl.Elapsed = time.Since(startTime)
		s.metadataSink.RecordProduct(task.ASIN, metadata.ProductAbsent, 0, crawl.Elapsed)
		return crawl, nil
	}
	if product.Name == "" {
		product.Name = task.Name
	}
	crawl.Product = product
	crawl.Found = true

	if crawl.Mode == ModeConcurrent {
		result, err := s.fanOut.PaginateBounded(ctx, product.ASIN, product.ReviewCount)
		crawl.Reviews = result.Reviews
		crawl.Status = result.Status
		crawl.PagesFetched = result.PageCount - len(result.MissingPages)
		crawl.MissingPages = result.MissingPages
		crawl.FailedPages = result.FailedPages
		crawl.ExhaustedPages = result.ExhaustedPages
		crawl.Collisions = result.Collisions
		s.totalErrors += len(result.MissingPages) + len(result.FailedPages) + len(result.ExhaustedPages)
		if err != nil {
			return s.finishProduct(product.ASIN, crawl, startTime, err)
		}
	} else {
		result, err := s.sequential.PaginateAll(ctx, product.ASIN)
		crawl.Reviews = result.Reviews
		crawl.PagesFetched = result.PagesFetched
		crawl.StopReason = result.StopReason
		crawl.Collisions = result.Collisions
		if result.StopReason == pagination.StopFetchExhausted || result.StopReason == pagination.StopExtractionFailed {
			s.totalErrors++
		}
		if err != nil {
			return s.finishProduct(product.ASIN, crawl, startTime, err)
		}
	}
	if crawl.Reviews == nil {
		crawl.Reviews = record.NewCollection()
	}
	crawl.Reviews.WithModelNum(product.ModelNum)

	writeResults, err := s.storageSink.Write(s.cfg.OutputDir(), product, crawl.Reviews)
	crawl.WriteResults = writeResults
	return s.finishProduct(product.ASIN, crawl, startTime, err)
}

func (s *Scheduler) finishProduct(
	resourceID string,
	crawl ProductCrawl,
	startTime time.Time,
	err failure.ClassifiedError,
) (ProductCrawl, failure.ClassifiedError) {
	crawl.Elapsed = time.Since(startTime)
	outcome := metadata.ProductCrawled
	if err != nil {
		s.totalErrors++
		outcome = metadata.ProductFailed
	}
	s.metadataSink.RecordProduct(resourceID, outcome, crawl.Reviews.Len(), crawl.Elapsed)
	return crawl, err
}

func (s *Scheduler) stats(execution CrawlingExecution) metadata.CrawlStats {
	stats := metadata.CrawlStats{
		TotalErrors: s.totalErrors,
		Duration:    execution.Duration,
	}
	for _, crawl := range execution.Crawls {
		if crawl.Found {
			stats.TotalProducts++
		}
		stats.TotalReviews += crawl.Reviews.Len()
		stats.TotalPages += crawl.PagesFetched
		stats.TotalArtifacts += len(crawl.WriteResults)
	}
	return stats
}

package pagination

import (
	"context"

	"github.com/rohmanhakim/review-crawler/internal/extractor"
	"github.com/rohmanhakim/review-crawler/internal/fetcher"
	"github.com/rohmanhakim/review-crawler/internal/locator"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/retry"
)

// PageScraper turns one page task into an outcome. The returned error is
// non-nil only for fatal failures; absent or unparseable pages are
// reported through PageOutcome.Status.
type PageScraper interface {
	ScrapePage(ctx context.Context, task PageTask) (PageOutcome, failure.ClassifiedError)
}

/*
ReviewPageScraper is the page task used by both pagination drivers:
locate -> fetch (with retry) -> extract.
*/
type ReviewPageScraper struct {
	metadataSink metadata.MetadataSink
	fetcher      fetcher.Fetcher
	extractor    extractor.ReviewExtractor
	locator      locator.Locator
	retryParam   retry.RetryParam
	userAgent    string
}

func NewReviewPageScraper(
	metadataSink metadata.MetadataSink,
	htmlFetcher fetcher.Fetcher,
	reviewExtractor extractor.ReviewExtractor,
	loc locator.Locator,
	retryParam retry.RetryParam,
	userAgent string,
) *ReviewPageScraper {
	return &ReviewPageScraper{
		metadataSink: metadataSink,
		fetcher:      htmlFetcher,
		extractor:    reviewExtractor,
		locator:      loc,
		retryParam:   retryParam,
		userAgent:    userAgent,
	}
}

func (s *ReviewPageScraper) ScrapePage(ctx context.Context, task PageTask) (PageOutcome, failure.ClassifiedError) {
	outcome := PageOutcome{
		Task:    task,
		Records: record.NewCollection(),
	}

	pageURL := s.locator.ReviewPageURL(task.ResourceID, task.PageNumber)
	result, err := s.fetcher.Fetch(ctx, fetcher.NewFetchParam(pageURL, s.userAgent), s.retryParam)
	if err != nil {
		if !fetcher.IsExhausted(err) {
			return outcome, err
		}
		outcome.Status = PageExhausted
		outcome.Err = err
		s.record(task, outcome)
		return outcome, nil
	}

	reviews, extractErr := s.extractor.Extract(result.URL(), result.Body())
	switch {
	case extractErr != nil:
		outcome.Status = PageFailed
		outcome.Err = extractErr
	case reviews.Len() == 0:
		outcome.Status = PageEmpty
	default:
		outcome.Status = PageRecords
		outcome.Records = reviews
	}

	s.record(task, outcome)
	return outcome, nil
}

func (s *ReviewPageScraper) record(task PageTask, outcome PageOutcome) {
	var status metadata.PageStatus
	switch outcome.Status {
	case PageRecords:
		status = metadata.PageStatusRecords
	case PageEmpty:
		status = metadata.PageStatusEmpty
	case PageExhausted:
		status = metadata.PageStatusExhausted
	default:
		status = metadata.PageStatusFailed
	}
	s.metadataSink.RecordPage(task.ResourceID, task.PageNumber, outcome.Records.Len(), status)
}

package scheduler

import (
	"context"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/extractor"
	"github.com/rohmanhakim/review-crawler/internal/fetcher"
	"github.com/rohmanhakim/review-crawler/internal/locator"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/retry"
)

// Acquirer obtains the primary record. The bool is false when the record
// is absent; only fatal errors are returned.
type Acquirer interface {
	Acquire(ctx context.Context, resourceID string) (record.Product, bool, failure.ClassifiedError)
}

var _ Acquirer = (*ProductAcquirer)(nil)

// ProductAcquirer is one fetch of the product page followed by one
// extraction. Exhausted retries, a non-product page and unparseable
// content all mean absent.
type ProductAcquirer struct {
	metadataSink metadata.MetadataSink
	fetcher      fetcher.Fetcher
	extractor    extractor.ProductExtractor
	locator      locator.Locator
	retryParam   retry.RetryParam
	userAgent    string
}

func NewProductAcquirer(
	metadataSink metadata.MetadataSink,
	htmlFetcher fetcher.Fetcher,
	productExtractor extractor.ProductExtractor,
	loc locator.Locator,
	retryParam retry.RetryParam,
	userAgent string,
) *ProductAcquirer {
	return &ProductAcquirer{
		metadataSink: metadataSink,
		fetcher:      htmlFetcher,
		extractor:    productExtractor,
		locator:      loc,
		retryParam:   retryParam,
		userAgent:    userAgent,
	}
}

func (a *ProductAcquirer) Acquire(
	ctx context.Context,
	resourceID string,
) (record.Product, bool, failure.ClassifiedError) {
	productURL := a.locator.ProductURL(resourceID)

	result, err := a.fetcher.Fetch(ctx, fetcher.NewFetchParam(productURL, a.userAgent), a.retryParam)
	if err != nil {
		if !fetcher.IsExhausted(err) {
			return record.Product{}, false, err
		}
		a.recordAbsent(resourceID, &SchedulerError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseProductUnavailable,
		})
		return record.Product{}, false, nil
	}

	product, ok, extractErr := a.extractor.Extract(result.URL(), result.Body())
	if extractErr != nil {
		// already recorded by the extractor
		return record.Product{}, false, nil
	}
	if !ok {
		a.recordAbsent(resourceID, &SchedulerError{
			Message:   "page at " + productURL.String() + " has no product title",
			Retryable: true,
			Cause:     ErrCauseNotAProduct,
		})
		return record.Product{}, false, nil
	}

	product.ASIN = resourceID
	if product.PageURL == "" {
		product.PageURL = productURL.String()
	}
	return product, true, nil
}

func (a *ProductAcquirer) recordAbsent(resourceID string, err *SchedulerError) {
	a.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		"ProductAcquirer.Acquire",
		mapSchedulerErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrResourceID, resourceID),
		},
	)
}

package extractor

import (
	"net/url"

	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

// ProductExtractor reads at most one primary record from a product page.
// The bool is false when the page does not look like a product page.
type ProductExtractor interface {
	Extract(sourceURL url.URL, body []byte) (record.Product, bool, failure.ClassifiedError)
}

// ReviewExtractor reads the reviews listed on one page. The collection is
// empty exactly when the page holds no more reviews.
type ReviewExtractor interface {
	Extract(sourceURL url.URL, body []byte) (record.Collection, failure.ClassifiedError)
}

package fetcher

import (
	"context"

	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}

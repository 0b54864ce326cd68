package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/retry"
)

/*
Responsibilities

- Perform HTTP GET requests for one locator
- Apply headers and the per-request timeout
- Retry every I/O failure with linear backoff
- Classify responses

Fetch Semantics

- Any 2xx response is a success; its body is returned unparsed
- Transport errors, non-2xx statuses and body read errors are retried
- A request that cannot be built is fatal and never retried
- Running out of attempts yields a recoverable *retry.RetryError; callers
  treat it as absent content
- Every attempt and every retry is reported to the metadata sink

The fetcher never parses content; it only returns bytes and metadata.
*/

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
}

// NewHtmlFetcher returns a fetcher whose single requests give up after
// requestTimeout. Zero means no per-request timeout.
func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
	requestTimeout time.Duration,
) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
}

// NewHtmlFetcherWithClient uses the given client as is.
func NewHtmlFetcherWithClient(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
	}
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"
	fetchUrl := fetchParam.fetchUrl

	observer := retryParam.OnRetry
	retryParam.OnRetry = func(attempt int, delay time.Duration, err failure.ClassifiedError) {
		h.metadataSink.RecordRetry(fetchUrl.String(), attempt, delay, err.Error())
		if observer != nil {
			observer(attempt, delay, err)
		}
	}

	result := retry.Retry(ctx, retryParam, func(attempt int) (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchUrl, fetchParam.userAgent, attempt)
	})

	if result.IsFailure() {
		h.recordError(callerMethod, fetchUrl, result.Err())
		return FetchResult{}, result.Err()
	}

	value := result.Value()
	value.attempts = result.Attempts()
	return value, nil
}

func (h *HtmlFetcher) recordError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
	}

	var retryError *retry.RetryError
	if errors.As(err, &retryError) {
		cause := metadata.CauseRetryExhausted
		if retryError.Cause != retry.ErrExhaustedAttempts {
			cause = metadata.CauseUnknown
		}
		h.metadataSink.RecordError(time.Now(), "fetcher", callerMethod, cause, err.Error(), attrs)
		return
	}

	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		if fetchError.StatusCode != 0 {
			attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(fetchError.StatusCode)))
		}
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			attrs,
		)
	}
}

func (h *HtmlFetcher) performFetch(
	ctx context.Context,
	fetchUrl url.URL,
	userAgent string,
	attempt int,
) (FetchResult, failure.ClassifiedError) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
		}
	}
	for key, value := range requestHeaders(userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.metadataSink.RecordFetch(fetchUrl.String(), 0, time.Since(startTime), "", attempt-1)
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		h.metadataSink.RecordFetch(fetchUrl.String(), resp.StatusCode, time.Since(startTime), contentType, attempt-1)
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("status %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseUnexpectedStatus,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	h.metadataSink.RecordFetch(fetchUrl.String(), resp.StatusCode, time.Since(startTime), contentType, attempt-1)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	return FetchResult{
		url:  fetchUrl,
		body: body,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			transferredSizeByte: uint64(len(body)),
			responseHeaders:     responseHeaders,
		},
	}, nil
}

func requestHeaders(userAgent string) map[string]string {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}
	return headers
}

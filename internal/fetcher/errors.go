package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
	"github.com/rohmanhakim/review-crawler/pkg/retry"
)

type FetchErrorCause string

const (
	ErrCauseInvalidRequest        FetchErrorCause = "invalid request"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseUnexpectedStatus      FetchErrorCause = "unexpected status"
)

type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// IsExhausted reports whether a Fetch error means "every attempt failed".
// Callers treat such a result as absent content, not as a crash.
func IsExhausted(err error) bool {
	return retry.IsExhausted(err)
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure, ErrCauseReadResponseBodyError, ErrCauseUnexpectedStatus:
		return metadata.CauseNetworkFailure
	case ErrCauseInvalidRequest:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}

package pagination

import (
	"fmt"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

type PaginationErrorCause string

const (
	ErrCauseAggregateTimeout PaginationErrorCause = "aggregate timeout"
	ErrCauseCanceled         PaginationErrorCause = "canceled"
	ErrCauseTaskPanic        PaginationErrorCause = "task panic"
	ErrCauseInvalidPageSize  PaginationErrorCause = "invalid page size"
	ErrCausePageCountClamped PaginationErrorCause = "page count clamped"
)

type PaginationError struct {
	Message   string
	Retryable bool
	Cause     PaginationErrorCause
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination error: %s: %s", e.Cause, e.Message)
}

func (e *PaginationError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapPaginationErrorToMetadataCause maps pagination-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapPaginationErrorToMetadataCause(err *PaginationError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseAggregateTimeout, ErrCauseCanceled:
		return metadata.CauseDeadlineExceeded
	case ErrCauseTaskPanic, ErrCauseInvalidPageSize, ErrCausePageCountClamped:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}

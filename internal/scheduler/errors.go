package scheduler

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

var ErrTaskListUnreadable = errors.New("task list is unreadable")

type SchedulerErrorCause string

const (
	ErrCauseProductUnavailable SchedulerErrorCause = "product page unavailable"
	ErrCauseNotAProduct        SchedulerErrorCause = "not a product page"
	ErrCauseInvalidTask        SchedulerErrorCause = "invalid task line"
)

type SchedulerError struct {
	Message   string
	Retryable bool
	Cause     SchedulerErrorCause
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler error: %s: %s", e.Cause, e.Message)
}

func (e *SchedulerError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapSchedulerErrorToMetadataCause(err *SchedulerError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseProductUnavailable:
		return metadata.CauseRetryExhausted
	case ErrCauseNotAProduct, ErrCauseInvalidTask:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}

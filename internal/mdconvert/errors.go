package mdconvert

import (
	"fmt"

	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

type ConversionErrorCause string

const (
	ErrCauseParseFailure      ConversionErrorCause = "html parse failed"
	ErrCauseConversionFailure ConversionErrorCause = "conversion failed"
)

type ConversionError struct {
	Message   string
	Retryable bool
	Cause     ConversionErrorCause
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: %s: %s", e.Cause, e.Message)
}

func (e *ConversionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapConversionErrorToMetadataCause(err ConversionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseParseFailure, ErrCauseConversionFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}

package metadata

import (
	"time"
)

/*
CrawlStats
  - Represents a terminal, derived summary of a completed crawl
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after crawl termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or crawl termination
*/
type CrawlStats struct {
	TotalProducts  int
	TotalReviews   int
	TotalPages     int
	TotalErrors    int
	TotalArtifacts int
	Duration       time.Duration
}

type ArtifactKind string

const (
	ArtifactProduct ArtifactKind = "product"
	ArtifactReview  ArtifactKind = "review"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, continuation, or abort decisions.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

  - Transport failure or an unusable HTTP status on a single attempt.

# CauseRetryExhausted

  - Every attempt allowed for one logical request failed.

# CauseContentInvalid

  - A page was fetched but records could not be extracted from it.

# CauseStorageFailure

  - Writing a record to disk failed.

# CauseDeadlineExceeded

  - The aggregation deadline passed before every page was processed.

# CauseInvariantViolation

  - An internal consistency check failed (a recovered panic, a bad input).
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseRetryExhausted
	CauseContentInvalid
	CauseStorageFailure
	CauseDeadlineExceeded
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseRetryExhausted:
		return "retry_exhausted"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseDeadlineExceeded:
		return "deadline_exceeded"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrResourceID AttributeKey = "resource_id"
	AttrPage       AttributeKey = "page"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrHash       AttributeKey = "content_hash"
	AttrMessage    AttributeKey = "message"
)

// PageStatus labels the outcome of one page in RecordPage.
type PageStatus string

const (
	PageStatusRecords   PageStatus = "records"
	PageStatusEmpty     PageStatus = "empty"
	PageStatusExhausted PageStatus = "exhausted"
	PageStatusFailed    PageStatus = "failed"
)

// ProductOutcome labels the result of one product crawl in RecordProduct.
type ProductOutcome string

const (
	ProductCrawled ProductOutcome = "crawled"
	// ProductAbsent: the product page could not be fetched or was not a
	// product page.
	ProductAbsent ProductOutcome = "absent"
	ProductFailed ProductOutcome = "failed"
)

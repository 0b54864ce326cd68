package pagination

import (
	"time"

	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/pkg/failure"
)

const (
	DefaultPageSize         = 10
	DefaultMaxPoolSize      = 8
	DefaultAggregateTimeout = 2 * time.Hour
	DefaultMaxPages         = 1000
)

// PageTask identifies one review listing page. Immutable.
type PageTask struct {
	ResourceID string
	PageNumber int
}

type PageStatus int

const (
	// PageRecords: the page held at least one record.
	PageRecords PageStatus = iota
	// PageEmpty: the page was fetched and holds no records.
	PageEmpty
	// PageExhausted: every fetch attempt failed; the page is absent.
	PageExhausted
	// PageFailed: the page was fetched but could not be parsed.
	PageFailed
)

func (s PageStatus) String() string {
	switch s {
	case PageRecords:
		return "records"
	case PageEmpty:
		return "empty"
	case PageExhausted:
		return "exhausted"
	case PageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageOutcome is the value a page task produces. Records is never nil.
// Err carries the recoverable error behind PageExhausted and PageFailed.
type PageOutcome struct {
	Task    PageTask
	Records record.Collection
	Status  PageStatus
	Err     failure.ClassifiedError
}

type StopReason string

const (
	StopEmptyPage        StopReason = "empty page"
	StopFetchExhausted   StopReason = "fetch exhausted"
	StopPageLimit        StopReason = "page limit"
	StopExtractionFailed StopReason = "extraction failed"
)

type SequentialResult struct {
	Reviews record.Collection
	// PagesFetched counts page fetches, including the one that stopped the
	// run.
	PagesFetched int
	StopReason   StopReason
	// StopPage is the page that ended the run.
	StopPage   int
	Collisions []string
}

type AggregateStatus string

const (
	AggregateComplete AggregateStatus = "complete"
	AggregatePartial  AggregateStatus = "partial"
)

type AggregateResult struct {
	Reviews record.Collection
	Status  AggregateStatus
	// PageCount is the number of pages scheduled, after the maxPages cap.
	PageCount int
	// Clamped is set when the count hint asked for more than maxPages.
	Clamped bool
	// MissingPages were never processed because the run was cut short.
	MissingPages []int
	// FailedPages produced a fatal error, a panic, or unparseable content.
	FailedPages []int
	// ExhaustedPages ran out of fetch attempts.
	ExhaustedPages []int
	Collisions     []string
}

// PageCount is ceil(countHint / pageSize); zero when countHint <= 0.
// Safe for any int hint.
func PageCount(countHint int, pageSize int) int {
	if countHint <= 0 || pageSize <= 0 {
		return 0
	}
	pages := countHint / pageSize
	if countHint%pageSize != 0 {
		pages++
	}
	return pages
}

// PoolSize is min(pageCount, maxPoolSize), at least 1 when there is work.
func PoolSize(pageCount int, maxPoolSize int) int {
	if pageCount <= 0 {
		return 0
	}
	if maxPoolSize < 1 {
		maxPoolSize = 1
	}
	if pageCount < maxPoolSize {
		return pageCount
	}
	return maxPoolSize
}

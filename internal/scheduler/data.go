package scheduler

import (
	"time"

	"github.com/rohmanhakim/review-crawler/internal/pagination"
	"github.com/rohmanhakim/review-crawler/internal/record"
	"github.com/rohmanhakim/review-crawler/internal/storage"
)

// Task is one line of a task file: "ASIN::product name".
type Task struct {
	ASIN string
	// Name is informational. It fills Product.Name when the page has none.
	Name string
}

type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeConcurrent Mode = "concurrent"
)

// ProductCrawl is the outcome of one product. Found is false when the
// product page was absent; Product then only carries the task.
type ProductCrawl struct {
	Product record.Product
	Found   bool
	Reviews record.Collection
	Mode    Mode

	// Sequential mode
	StopReason pagination.StopReason
	// Page fetches, in either mode.
	PagesFetched int

	// Concurrent mode
	Status         pagination.AggregateStatus
	MissingPages   []int
	FailedPages    []int
	ExhaustedPages []int

	Collisions   []string
	WriteResults []storage.WriteResult
	Elapsed      time.Duration
}

type CrawlingExecution struct {
	Crawls []ProductCrawl
	// SkippedLines are task file lines that held no valid id.
	SkippedLines []int
	Duration     time.Duration
}

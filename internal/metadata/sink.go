package metadata

import "time"

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)

	// RecordRetry is called once per failed attempt that will be followed
	// by a backoff wait.
	RecordRetry(fetchUrl string, attempt int, delay time.Duration, reason string)

	RecordPage(resourceID string, page int, records int, status PageStatus)

	// RecordMerge reports the size of a merged collection and the ids that
	// were seen more than once.
	RecordMerge(resourceID string, reviews int, collisions []string)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)

	// RecordProduct is called once per product the scheduler finished.
	RecordProduct(resourceID string, outcome ProductOutcome, reviews int, elapsed time.Duration)
}

type CrawlFinalizer interface {
	RecordFinalCrawlStats(stats CrawlStats)
}

// NoopSink, struct that implements metadata.Sink but does nothing
// Scheduler (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (n *NoopSink) RecordRetry(fetchUrl string, attempt int, delay time.Duration, reason string) {}

func (n *NoopSink) RecordPage(resourceID string, page int, records int, status PageStatus) {}

func (n *NoopSink) RecordMerge(resourceID string, reviews int, collisions []string) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordProduct(resourceID string, outcome ProductOutcome, reviews int, elapsed time.Duration) {
}

func (n *NoopSink) RecordFinalCrawlStats(stats CrawlStats) {}

package metadata

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

/*
Recorder captures structured crawl events.
It must not:
- perform I/O decisions
- affect control flow
Every event is written to the zerolog logger tagged with the run id and,
when metrics are attached, counted.

Metadata is write-only.
No component may read metadata to influence crawl decisions.
*/
type Recorder struct {
	runID   string
	logger  zerolog.Logger
	metrics *Metrics
}

func NewRecorder(logger zerolog.Logger, metrics *Metrics) *Recorder {
	runID := uuid.NewString()
	return &Recorder{
		runID:   runID,
		logger:  logger.With().Str("run_id", runID).Logger(),
		metrics: metrics,
	}
}

func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	ev := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String())
	withAttrs(ev, attrs).Msg(errorString)

	if r.metrics != nil {
		r.metrics.errors.WithLabelValues(packageName, cause.String()).Inc()
	}
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	r.logger.Info().
		Str("url", fetchUrl).
		Int("status", httpStatus).
		Dur("duration", duration).
		Str("content_type", contentType).
		Int("retry_count", retryCount).
		Msg("fetch")

	if r.metrics != nil {
		class := statusClass(httpStatus)
		r.metrics.fetches.WithLabelValues(class).Inc()
		r.metrics.fetchDuration.WithLabelValues(class).Observe(duration.Seconds())
	}
}

func (r *Recorder) RecordRetry(fetchUrl string, attempt int, delay time.Duration, reason string) {
	r.logger.Warn().
		Str("url", fetchUrl).
		Int("attempt", attempt).
		Dur("delay", delay).
		Str("reason", reason).
		Msg("retrying")

	if r.metrics != nil {
		r.metrics.retries.Inc()
		r.metrics.backoff.Add(delay.Seconds())
	}
}

func (r *Recorder) RecordPage(resourceID string, page int, records int, status PageStatus) {
	r.logger.Info().
		Str("resource_id", resourceID).
		Int("page", page).
		Int("records", records).
		Str("status", string(status)).
		Msg("page")

	if r.metrics != nil {
		r.metrics.pages.WithLabelValues(string(status)).Inc()
	}
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	ev := r.logger.Info().
		Str("kind", string(kind)).
		Str("path", path)
	withAttrs(ev, attrs).Msg("artifact")

	if r.metrics != nil {
		r.metrics.artifacts.WithLabelValues(string(kind)).Inc()
	}
}

func (r *Recorder) RecordMerge(resourceID string, reviews int, collisions []string) {
	if len(collisions) > 0 {
		r.logger.Warn().
			Str("resource_id", resourceID).
			Strs("ids", collisions).
			Msg("duplicate review ids merged, last write kept")
	}

	if r.metrics != nil {
		r.metrics.merged.Add(float64(reviews))
		r.metrics.collisions.Add(float64(len(collisions)))
	}
}

func (r *Recorder) RecordProduct(resourceID string, outcome ProductOutcome, reviews int, elapsed time.Duration) {
	level := zerolog.InfoLevel
	if outcome != ProductCrawled {
		level = zerolog.WarnLevel
	}
	r.logger.WithLevel(level).
		Str("resource_id", resourceID).
		Str("outcome", string(outcome)).
		Int("reviews", reviews).
		Str("elapsed", elapsed.Round(time.Millisecond).String()).
		Msg("product")

	if r.metrics != nil {
		r.metrics.products.WithLabelValues(string(outcome)).Inc()
	}
}

/*
RecordFinalCrawlStats records a terminal, derived summary of a completed crawl.

Contract:
  - MUST be called exactly once per crawl execution, after termination.
  - The provided CrawlStats MUST be derived from scheduler state,
    not accumulated incrementally via the recorder.
*/
func (r *Recorder) RecordFinalCrawlStats(stats CrawlStats) {
	r.logger.WithLevel(zerolog.NoLevel).
		Int("products", stats.TotalProducts).
		Int("reviews", stats.TotalReviews).
		Int("pages", stats.TotalPages).
		Int("errors", stats.TotalErrors).
		Int("artifacts", stats.TotalArtifacts).
		Str("duration", stats.Duration.Round(time.Millisecond).String()).
		Msg("crawl finished")
}

func withAttrs(ev *zerolog.Event, attrs []Attribute) *zerolog.Event {
	for _, a := range attrs {
		if a.Key == AttrHTTPStatus || a.Key == AttrPage {
			if n, err := strconv.Atoi(a.Value); err == nil {
				ev = ev.Int(string(a.Key), n)
				continue
			}
		}
		ev = ev.Str(string(a.Key), a.Value)
	}
	return ev
}

package metadata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the crawl counters. Each instance registers on its own
// registerer so several recorders can coexist in one process.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	retries       prometheus.Counter
	backoff       prometheus.Counter
	merged        prometheus.Counter
	collisions    prometheus.Counter
	pages         *prometheus.CounterVec
	errors        *prometheus.CounterVec
	artifacts     *prometheus.CounterVec
	products      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_fetches_total",
				Help: "Fetch attempts by HTTP status class",
			},
			[]string{"status_class"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "review_crawler_fetch_duration_seconds",
				Help:    "Duration of single fetch attempts",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status_class"},
		),
		retries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "review_crawler_retries_total",
				Help: "Failed attempts followed by a backoff wait",
			},
		),
		backoff: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "review_crawler_backoff_seconds_total",
				Help: "Backoff time requested between attempts",
			},
		),
		merged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "review_crawler_reviews_merged_total",
				Help: "Reviews in merged collections",
			},
		),
		collisions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "review_crawler_review_collisions_total",
				Help: "Review ids seen on more than one page",
			},
		),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_pages_total",
				Help: "Review listing pages by outcome",
			},
			[]string{"status"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_errors_total",
				Help: "Recorded errors by package and cause",
			},
			[]string{"package", "cause"},
		),
		artifacts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_artifacts_total",
				Help: "Records written by kind",
			},
			[]string{"kind"},
		),
		products: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_products_total",
				Help: "Products finished by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "none"
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Package telemetry exposes Prometheus metrics for the crawl and analysis
// pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "awslens"

// Metrics holds all pipeline Prometheus metrics.
type Metrics struct {
	// Analysis metrics. RecordsProcessed is labeled by outcome:
	// successful, below_threshold, invalid_response, client_error,
	// unprocessable, error.
	RecordsProcessed *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram

	// Crawl metrics, labeled by source (blogs, docs, youtube).
	ItemsCrawled   *prometheus.CounterVec
	ItemsInserted  *prometheus.CounterVec
	ItemsDuplicate *prometheus.CounterVec
	CrawlErrors    *prometheus.CounterVec
	CrawlDuration  *prometheus.HistogramVec

	// Backlog gauge, refreshed from repository stats.
	UnprocessedBacklog prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics. A nil registerer
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RecordsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "records_processed_total",
				Help:      "Analysis outcomes by type",
			},
			[]string{"outcome"},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "analysis_duration_seconds",
				Help:      "Duration of a single model analysis call",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		ItemsCrawled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "crawler",
				Name:      "items_crawled_total",
				Help:      "Items discovered by crawlers",
			},
			[]string{"source"},
		),
		ItemsInserted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "crawler",
				Name:      "items_inserted_total",
				Help:      "Newly stored items",
			},
			[]string{"source"},
		),
		ItemsDuplicate: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "crawler",
				Name:      "items_duplicate_total",
				Help:      "Items skipped because their URL was already stored",
			},
			[]string{"source"},
		),
		CrawlErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "crawler",
				Name:      "errors_total",
				Help:      "Crawl errors by source",
			},
			[]string{"source"},
		),
		CrawlDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "crawler",
				Name:      "crawl_duration_seconds",
				Help:      "Duration of a full crawl per source",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"source"},
		),
		UnprocessedBacklog: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "unprocessed_backlog",
				Help:      "Records waiting for analysis",
			},
		),
	}
}

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

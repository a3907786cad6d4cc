package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RunsTotal           *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	SourceListings      *prometheus.CounterVec
	SourceFailures      *prometheus.CounterVec
	CardsSkipped        *prometheus.CounterVec
	ListingsRejected    *prometheus.CounterVec
	ListingsInserted    prometheus.Counter
	RunsInQueue         prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_runs_total",
				Help: "Total number of crawl runs by final status.",
			},
			[]string{"status"}, // completed, failed
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_run_duration_seconds",
				Help:    "Duration of complete crawl runs.",
				Buckets: []float64{10, 30, 60, 120, 300, 600},
			},
		),
		SourceListings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_source_listings_total",
				Help: "Listings extracted per source.",
			},
			[]string{"source"},
		),
		SourceFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_source_failures_total",
				Help: "Adapter runs that failed per source.",
			},
			[]string{"source"},
		),
		CardsSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_cards_skipped_total",
				Help: "Listing cards skipped because a field could not be read.",
			},
			[]string{"source"},
		),
		ListingsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_listings_rejected_total",
				Help: "Listings dropped by normalization.",
			},
			[]string{"source"},
		),
		ListingsInserted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_listings_inserted_total",
				Help: "Listings newly inserted into the store.",
			},
		),
		RunsInQueue: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_run_queue_length",
				Help: "Current number of crawl runs waiting in the queue.",
			},
		),
	}
}

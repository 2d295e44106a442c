// Package metrics registers the Prometheus collectors of the Shelfmark server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfmark_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfmark_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_rate_limit_hits_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_auth_attempts_total",
			Help: "Authentication attempts by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: success, failure
	)

	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfmark_sessions_swept_total",
			Help: "Expired sessions removed by the sweeper",
		},
	)

	// Search
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_searches_total",
			Help: "Catalog searches executed",
		},
		[]string{"kind"}, // filter, quick
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shelfmark_search_results",
			Help:    "Number of books returned by a filter search",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250},
		},
	)

	SnapshotsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfmark_search_snapshots_saved_total",
			Help: "Saved search snapshots written",
		},
	)

	// Catalog and activity
	CatalogWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_catalog_writes_total",
			Help: "Authors, genres and books created",
		},
		[]string{"entity"},
	)

	ActivityWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_activity_writes_total",
			Help: "Ratings, reviews and to-read changes",
		},
		[]string{"kind"},
	)

	SeedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfmark_seed_rows_total",
			Help: "Rows inserted by bulk loads",
		},
		[]string{"kind"},
	)
)

// RecordHTTPRequest records a completed request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordAuth records the outcome of an authentication operation.
func RecordAuth(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordSearch records a filter search and its result count.
func RecordSearch(results int, saved bool) {
	SearchesTotal.WithLabelValues("filter").Inc()
	SearchResults.Observe(float64(results))
	if saved {
		SnapshotsSaved.Inc()
	}
}

// RecordQuickSearch records a full-text search.
func RecordQuickSearch() {
	SearchesTotal.WithLabelValues("quick").Inc()
}

// RecordSeed adds n inserted rows of kind.
func RecordSeed(kind string, n int) {
	if n > 0 {
		SeedRows.WithLabelValues(kind).Add(float64(n))
	}
}

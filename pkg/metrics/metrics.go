// Package metrics provides Prometheus metrics for the price engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuoteFetchesTotal is a counter of quote fetch attempts per source.
	QuoteFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_fetches_total",
			Help: "Total number of quote fetch attempts against price sources",
		},
		[]string{"source", "status"},
	)

	// QuoteFetchDuration is a histogram of per-source fetch latencies.
	QuoteFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_fetch_duration_seconds",
			Help:    "Latency of quote fetches per source",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// PriceSelectionDuration is a histogram of price selection duration.
	PriceSelectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_selection_duration_seconds",
			Help:    "Duration of price selection over collected quotes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// OutlierFlagsTotal is a counter of quotes flagged as outliers.
	OutlierFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outlier_flags_total",
			Help: "Total number of quotes flagged as outliers during selection",
		},
		[]string{"source"},
	)

	// PriceConfidence is a histogram of computed confidence scores.
	PriceConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_confidence_score",
			Help:    "Distribution of confidence scores for selected prices",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// CacheLookupsTotal is a counter of result cache lookups.
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"outcome"},
	)

	// RefreshItemsTotal is a counter of per-item refresh outcomes in batches.
	RefreshItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_items_total",
			Help: "Total number of items processed by batch refresh, by outcome",
		},
		[]string{"outcome"},
	)

	// BatchRefreshDuration is a histogram of whole-batch refresh durations.
	BatchRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_refresh_duration_seconds",
			Help:    "Duration of inventory-wide refresh runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// PersistenceWritesTotal is a counter of price write-backs.
	PersistenceWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_writes_total",
			Help: "Total number of price write-backs to the inventory store",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

// Init registers all metrics with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		QuoteFetchesTotal,
		QuoteFetchDuration,
		PriceSelectionDuration,
		OutlierFlagsTotal,
		PriceConfidence,
		CacheLookupsTotal,
		RefreshItemsTotal,
		BatchRefreshDuration,
		PersistenceWritesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      http.DefaultServeMux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordQuoteFetch records a quote fetch attempt.
func RecordQuoteFetch(source, status string, duration time.Duration) {
	QuoteFetchesTotal.WithLabelValues(source, status).Inc()
	QuoteFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSelection records a price selection run.
func RecordSelection(duration time.Duration, confidence int) {
	PriceSelectionDuration.Observe(duration.Seconds())
	PriceConfidence.Observe(float64(confidence))
}

// RecordOutlierFlag records a quote flagged as outlier.
func RecordOutlierFlag(source string) {
	OutlierFlagsTotal.WithLabelValues(source).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordRefreshItem records a per-item batch outcome.
func RecordRefreshItem(outcome string) {
	RefreshItemsTotal.WithLabelValues(outcome).Inc()
}

// RecordBatchRefresh records the duration of a batch refresh run.
func RecordBatchRefresh(duration time.Duration) {
	BatchRefreshDuration.Observe(duration.Seconds())
}

// RecordPersistenceWrite records a price write-back.
func RecordPersistenceWrite(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	PersistenceWritesTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

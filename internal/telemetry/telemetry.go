// Package telemetry exposes Prometheus collectors for the LeadForge service.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	searchRequestsTotal        *prometheus.CounterVec
	discoveryTotal             *prometheus.CounterVec
	verifyChecksTotal          *prometheus.CounterVec
	generationRequestsTotal    *prometheus.CounterVec
	storeRecords               prometheus.Gauge
	enrichWaitSeconds          prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadforge_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadforge_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		searchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadforge_search_requests_total",
				Help: "Total number of search provider queries, labeled by result.",
			},
			[]string{"result"},
		)

		discoveryTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadforge_discovery_total",
				Help: "Total number of website discovery attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		verifyChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadforge_verify_checks_total",
				Help: "Total number of website verification checks, labeled by result.",
			},
			[]string{"result"},
		)

		generationRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadforge_generation_requests_total",
				Help: "Total number of email generation requests, labeled by result.",
			},
			[]string{"result"},
		)

		storeRecords = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadforge_store_records",
				Help: "Number of business records currently held in the store.",
			},
		)

		enrichWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadforge_enrich_wait_seconds",
				Help:    "Histogram of enrichment pacing wait durations.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveSearch increments the search query counter for the given result.
func ObserveSearch(result string) {
	searchRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveDiscovery increments the discovery counter for the given outcome.
func ObserveDiscovery(outcome string) {
	discoveryTotal.WithLabelValues(outcome).Inc()
}

// ObserveVerification increments the verification counter for the given result.
func ObserveVerification(result string) {
	verifyChecksTotal.WithLabelValues(result).Inc()
}

// ObserveGeneration increments the email generation counter for the given result.
func ObserveGeneration(result string) {
	generationRequestsTotal.WithLabelValues(result).Inc()
}

// SetStoreRecords updates the store size gauge.
func SetStoreRecords(n int) {
	storeRecords.Set(float64(n))
}

// ObserveEnrichWait records the duration of an enrichment pacing wait.
func ObserveEnrichWait(duration time.Duration) {
	enrichWaitSeconds.Observe(duration.Seconds())
}

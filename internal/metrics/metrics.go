// Package metrics exposes Prometheus collectors for the conversion service.
package metrics

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
	conversionsTotal           *prometheus.CounterVec
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchBackoffSeconds        prometheus.Histogram
	engineState                prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		conversionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdserver_conversions_total",
				Help: "Total number of conversion requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdserver_fetch_attempts_total",
				Help: "Total number of object store fetch attempts, labeled by result.",
			},
			[]string{"result"},
		)

		fetchBackoffSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mdserver_fetch_backoff_seconds",
				Help:    "Histogram of backoff delays between fetch attempts.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
			},
		)

		engineState = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mdserver_engine_state",
				Help: "Conversion engine state (0 uninitialized, 1 initializing, 2 ready, 3 failed).",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveConversion counts one finished conversion request.
func ObserveConversion(outcome string) {
	Init()
	conversionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchAttempt counts one object store read attempt.
func ObserveFetchAttempt(result string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveBackoff records one backoff delay.
func ObserveBackoff(d time.Duration) {
	Init()
	fetchBackoffSeconds.Observe(d.Seconds())
}

// SetEngineState records the current engine lifecycle state.
func SetEngineState(state int) {
	Init()
	engineState.Set(float64(state))
}

// ObserveHTTPRequest records one HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

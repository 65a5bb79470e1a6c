// Package metrics provides Prometheus metrics for the chargemaster API.
// HTTP traffic:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Charge data:
//   - charge_items_loaded: Gauge with the item count of the current snapshot
//   - data_reload_total: Counter with a result label (success, failure, skipped)
//   - data_reload_duration_seconds: Histogram of successful reloads
//   - unit_price_kinds: Gauge with the drug items per unit price kind
//   - estimates_total: Counter of estimates served
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of clients tracked by the rate limiter",
		},
	)

	ItemsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "charge_items_loaded",
			Help: "Number of charge items in the current snapshot",
		},
	)

	DataReloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_reload_total",
			Help: "Charge file reloads by result",
		},
		[]string{"result"},
	)

	DataReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "data_reload_duration_seconds",
			Help:    "Duration of successful charge file reloads",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	UnitPriceKinds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unit_price_kinds",
			Help: "Drug items per unit price kind in the current snapshot",
		},
		[]string{"kind"},
	)

	EstimatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "estimates_total",
			Help: "Total estimates served",
		},
	)
)

// Reload results
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
	ReloadSkipped = "skipped"
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ItemsLoaded)
	prometheus.MustRegister(DataReloadTotal)
	prometheus.MustRegister(DataReloadDuration)
	prometheus.MustRegister(UnitPriceKinds)
	prometheus.MustRegister(EstimatesTotal)
}

// RecordReload records the outcome of a reload. Duration is only observed for
// successful ones.
func RecordReload(result string, duration time.Duration) {
	DataReloadTotal.WithLabelValues(result).Inc()
	if result == ReloadSuccess {
		DataReloadDuration.Observe(duration.Seconds())
	}
}

// RecordSnapshot publishes the size and unit price mix of a new snapshot
func RecordSnapshot(items int, unitPriceKinds map[string]int) {
	ItemsLoaded.Set(float64(items))
	UnitPriceKinds.Reset()
	for kind, count := range unitPriceKinds {
		UnitPriceKinds.WithLabelValues(kind).Set(float64(count))
	}
}

// Package metrics holds the Prometheus collectors for resolution and
// navigation. Collectors are registered on the default registry at init.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

var (
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applink_resolutions_total",
			Help: "Total number of App Link resolutions by result",
		},
		[]string{"result"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applink_cache_lookups_total",
			Help: "Resolved link cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "applink_fetch_duration_seconds",
			Help:    "Duration of metadata page fetches in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"host", "status"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "applink_fetch_breaker_state",
			Help: "Fetch circuit breaker state per host (0=closed, 1=half-open, 2=open)",
		},
		[]string{"host"},
	)

	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applink_navigations_total",
			Help: "Total number of navigations by outcome (app, browser, failure)",
		},
		[]string{"outcome"},
	)

	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applink_navigation_attempts_total",
			Help: "Per-candidate navigation attempts by result",
		},
		[]string{"result"},
	)
)

// RecordResolution counts one resolution. result is "ok" or an error kind.
func RecordResolution(result string) {
	resolutionsTotal.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts one cache lookup.
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveFetch records the duration of a fetch against host.
func ObserveFetch(host string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	fetchDuration.WithLabelValues(host, status).Observe(d.Seconds())
}

// SetBreakerState exports a breaker state change.
func SetBreakerState(host string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	breakerState.WithLabelValues(host).Set(v)
}

// RecordNavigation counts one finished navigation.
func RecordNavigation(outcome string) {
	navigationsTotal.WithLabelValues(outcome).Inc()
}

// RecordAttempt counts one candidate attempt.
func RecordAttempt(result string) {
	attemptsTotal.WithLabelValues(result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics defines the Prometheus instrumentation for the dashboard
// gateway and its API client layer. All collectors are registered on the
// default registry via promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Configuration loading
var (
	// ConfigLoadsTotal counts remote configuration loads by outcome (success/error).
	ConfigLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_loads_total",
			Help: "Remote configuration loads by outcome",
		},
		[]string{"outcome"},
	)

	// ConfigLoadWaiters counts callers that attached to an already in-flight
	// configuration load instead of issuing their own request.
	ConfigLoadWaiters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "config_load_coalesced_waiters_total",
			Help: "Callers coalesced onto an in-flight configuration load",
		},
	)
)

// Token acquisition
var (
	// TokenRequestsTotal counts identity-provider token requests by outcome.
	TokenRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_token_requests_total",
			Help: "Identity provider token requests by outcome",
		},
		[]string{"outcome"},
	)
)

// Outbound API calls
var (
	// APIRequestsTotal counts outbound fleet API requests by method and outcome.
	// Outcome is "success", or the failure kind for classified errors.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_api_requests_total",
			Help: "Outbound fleet API requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// APIRequestDuration tracks outbound request latency in seconds.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_api_request_duration_seconds",
			Help:    "Outbound fleet API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// APICallsInFlight tracks coordinator calls currently awaiting a result.
	APICallsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleet_api_calls_in_flight",
			Help: "Coordinator API calls currently in flight",
		},
	)
)

// Gateway HTTP surface
var (
	// HTTPRequestsTotal counts gateway HTTP requests by route and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Gateway HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)

// Package metrics exposes the terminal's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SettlementsTotal counts settlement passes by mode and payment method.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terminal",
		Name:      "settlements_total",
		Help:      "Settlement passes committed, by settle mode and payment method.",
	}, []string{"mode", "method"})

	// SettledUnitsTotal counts individual units marked paid.
	SettledUnitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "terminal",
		Name:      "settled_units_total",
		Help:      "Line-item units marked paid across all settlements.",
	})

	// CompletionFailures counts order-completion calls that did not persist.
	CompletionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "terminal",
		Name:      "completion_failures_total",
		Help:      "Order completion calls that failed upstream.",
	})

	// UpstreamErrors counts failed upstream API calls by operation.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terminal",
		Name:      "upstream_errors_total",
		Help:      "Upstream API calls that returned an error, by operation.",
	}, []string{"op"})
)

// Handler returns the HTTP handler that serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

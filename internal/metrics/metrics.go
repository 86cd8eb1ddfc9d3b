// Package metrics holds the Prometheus instrumentation shared by the webhook
// listener and the status API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

var (
	// WebhookDeliveries counts inbound webhook deliveries by outcome
	// (accepted, rejected, malformed, failed).
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitekit",
		Subsystem: "webhook",
		Name:      "deliveries_total",
		Help:      "Count of inbound webhook deliveries by outcome",
	}, []string{"outcome"})

	// Revalidations counts individual cache invalidation operations.
	Revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitekit",
		Subsystem: "revalidate",
		Name:      "operations_total",
		Help:      "Count of cache invalidation operations by kind and result",
	}, []string{"kind", "result"})

	// DeployTriggers counts deploy-hook invocations by environment and outcome.
	DeployTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitekit",
		Subsystem: "deploy",
		Name:      "triggers_total",
		Help:      "Count of deploy hook invocations by environment and outcome",
	}, []string{"environment", "outcome"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitekit",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"server", "method", "status"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sitekit",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"server", "method", "status"})
)

// HTTPMiddleware instruments a chi router with request counts and latency.
// The server label separates the webhook listener from the status API.
func HTTPMiddleware(server string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			labels := prometheus.Labels{
				"server": server,
				"method": r.Method,
				"status": strconv.Itoa(ww.Status()),
			}
			requestTotal.With(labels).Inc()
			requestLatency.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}

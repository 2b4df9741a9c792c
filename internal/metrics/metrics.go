// Package metrics exposes Prometheus instrumentation for the API and the
// triage pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all registered collectors.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	TriageRequests     prometheus.Counter
	TriageFailures     *prometheus.CounterVec
	RemindersDelivered *prometheus.CounterVec
}

// New creates a registry with process and Go runtime collectors plus the
// application series.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthdeck_http_requests_total",
			Help: "HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthdeck_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		TriageRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthdeck_triage_requests_total",
			Help: "Symptom analysis requests.",
		}),
		TriageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthdeck_triage_failures_total",
			Help: "Symptom analysis failures by error code.",
		}, []string{"code"}),
		RemindersDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthdeck_reminders_delivered_total",
			Help: "Reminders delivered by kind.",
		}, []string{"kind"}),
	}
}

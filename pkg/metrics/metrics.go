package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liberta"

// Metrics owns a private registry with the billing collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	webhookRequests *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	reconciliations *prometheus.CounterVec
	bridgeRequests  *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
}

// New registers the collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		webhookRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "webhook_requests_total",
			Help:      "Billing webhook requests by provider, event type and HTTP status.",
		}, []string{"provider", "event_type", "status"}),
		webhookDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "webhook_duration_seconds",
			Help:      "Billing webhook processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "reconciliations_total",
			Help:      "Subscription events by reconciliation outcome.",
		}, []string{"provider", "outcome"}),
		bridgeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "bridge_requests_total",
			Help:      "Checkout and portal session requests by operation and result.",
		}, []string{"operation", "result"}),
		gateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "gate_decisions_total",
			Help:      "Entitlement gate decisions by state.",
		}, []string{"state"}),
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveWebhook records one webhook request.
func (m *Metrics) ObserveWebhook(provider, eventType string, status int, took time.Duration) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookRequests.WithLabelValues(provider, eventType, strconv.Itoa(status)).Inc()
	m.webhookDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// Reconciled records the outcome of applying one subscription event.
func (m *Metrics) Reconciled(provider, outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(provider, outcome).Inc()
}

// BridgeRequest records a checkout or portal session attempt.
func (m *Metrics) BridgeRequest(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.bridgeRequests.WithLabelValues(operation, result).Inc()
}

// GateDecision records one entitlement gate decision.
func (m *Metrics) GateDecision(state string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(state).Inc()
}

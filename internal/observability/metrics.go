package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the ensemble pipeline and daemon.
type Metrics struct {
	registry         *prometheus.Registry
	EnsembleRequests *prometheus.CounterVec
	EnsembleDuration *prometheus.HistogramVec
	BackendCalls     *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
	Confidence       prometheus.Histogram
	Elevations       *prometheus.CounterVec
	ActiveSession    *prometheus.GaugeVec
	TransportErrs    *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with ensemble collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsl_ensemble_requests_total",
		Help: "Total ensemble runs by tier and outcome",
	}, []string{"tier", "outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsl_ensemble_duration_seconds",
		Help:    "Ensemble run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"tier"})

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsl_backend_calls_total",
		Help: "Backend invocations by backend and status",
	}, []string{"backend", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsl_backend_latency_seconds",
		Help:    "Reported backend latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	confidence := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fsl_consensus_confidence",
		Help:    "Consensus confidence per run",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	elevations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsl_router_elevations_total",
		Help: "Routing decisions capped below the computed tier",
	}, []string{"from", "to"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsl_transport_active_sessions",
		Help: "Active streaming sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fsl_transport_errors_total",
		Help: "Transport-level errors (handler/streaming) by transport and reason",
	}, []string{"transport", "reason"})

	reg.MustRegister(reqs, durs, calls, latency, confidence, elevations, active, trErrors)

	return &Metrics{
		registry:         reg,
		EnsembleRequests: reqs,
		EnsembleDuration: durs,
		BackendCalls:     calls,
		BackendLatency:   latency,
		Confidence:       confidence,
		Elevations:       elevations,
		ActiveSession:    active,
		TransportErrs:    trErrors,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordEnsembleRun records the run count, duration and consensus confidence.
func (m *Metrics) RecordEnsembleRun(tier, outcome string, duration time.Duration, confidence float64) {
	if m == nil {
		return
	}
	tier = orUnknown(tier)
	m.EnsembleRequests.WithLabelValues(tier, orUnknown(outcome)).Inc()
	m.EnsembleDuration.WithLabelValues(tier).Observe(duration.Seconds())
	m.Confidence.Observe(confidence)
}

// RecordBackendCall counts one backend invocation.
func (m *Metrics) RecordBackendCall(backendID string, ok bool, latencyMs float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	backendID = orUnknown(backendID)
	m.BackendCalls.WithLabelValues(backendID, status).Inc()
	if ok {
		m.BackendLatency.WithLabelValues(backendID).Observe(latencyMs / 1000)
	}
}

// RecordElevation counts a routing decision that was capped at a lower tier.
func (m *Metrics) RecordElevation(from, to string) {
	if m == nil {
		return
	}
	m.Elevations.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	m.TransportErrs.WithLabelValues(orUnknown(transport), orUnknown(reason)).Inc()
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

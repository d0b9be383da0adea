package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records backend call outcomes and session activity for cart sessions.
type CartMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	coalesced prometheus.Counter
	sessions  prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_backend_call_duration_seconds",
		Help:    "Duration of cart backend calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_backend_call_success",
		Help: "Successful cart backend calls.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_backend_call_failure",
		Help: "Failed cart backend calls.",
	}, []string{"operation"})
	coalesced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_quantity_edits_coalesced",
		Help: "Quantity edits superseded by a later edit inside the debounce window.",
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_sessions_active",
		Help: "Currently mounted cart sessions.",
	})
	reg.MustRegister(duration, success, failure, coalesced, sessions)
	return &CartMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		coalesced: coalesced,
		sessions:  sessions,
	}
}

// ObserveCall records duration and outcome for one backend call.
func (c *CartMetrics) ObserveCall(operation string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	c.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.failure.WithLabelValues(op).Inc()
		return
	}
	c.success.WithLabelValues(op).Inc()
}

// IncCoalesced counts a pending quantity edit replaced by a newer one.
func (c *CartMetrics) IncCoalesced() {
	if c == nil || c.coalesced == nil {
		return
	}
	c.coalesced.Inc()
}

// SessionMounted bumps the active sessions gauge.
func (c *CartMetrics) SessionMounted() {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Inc()
}

// SessionUnmounted lowers the active sessions gauge.
func (c *CartMetrics) SessionUnmounted() {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Dec()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}

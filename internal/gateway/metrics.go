package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the gateway tier.
type Metrics struct {
	canaryRequests *prometheus.CounterVec
	activeRequests prometheus.Gauge
	proxyRequests  *prometheus.CounterVec
}

// NewMetrics creates gateway metrics registered on the default
// registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates gateway metrics registered on the
// given registerer. Tests pass a fresh registry to avoid duplicate
// registration panics.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		canaryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_canary_requests_total",
				Help: "Total requests by canary enforcement outcome.",
			},
			[]string{"authenticated"},
		),
		activeRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_active_authenticated_requests",
				Help: "Number of authenticated requests currently in flight.",
			},
		),
		proxyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_proxy_requests_total",
				Help: "Total requests proxied to downstream services.",
			},
			[]string{"service"},
		),
	}

	reg.MustRegister(m.canaryRequests, m.activeRequests, m.proxyRequests)

	return m
}

// RecordCanary records one request with its enforcement outcome.
func (m *Metrics) RecordCanary(authenticated bool) {
	if authenticated {
		m.canaryRequests.WithLabelValues("true").Inc()
	} else {
		m.canaryRequests.WithLabelValues("false").Inc()
	}
}

// RecordProxy records one request proxied to a downstream service.
func (m *Metrics) RecordProxy(service string) {
	m.proxyRequests.WithLabelValues(service).Inc()
}

// AuthenticatedRequestStarted increments the in-flight gauge.
func (m *Metrics) AuthenticatedRequestStarted() {
	m.activeRequests.Inc()
}

// AuthenticatedRequestFinished decrements the in-flight gauge.
func (m *Metrics) AuthenticatedRequestFinished() {
	m.activeRequests.Dec()
}

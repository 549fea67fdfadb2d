package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for token validation.
type Metrics struct {
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
}

// NewMetrics creates validation metrics registered on the default
// registerer. The service label distinguishes gateways from downstream
// services sharing the auth core.
func NewMetrics(service string) *Metrics {
	return NewMetricsWithRegisterer(service, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates validation metrics registered on the
// given registerer. Tests pass a fresh registry to avoid duplicate
// registration panics.
func NewMetricsWithRegisterer(service string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_auth_validations_total",
				Help: "Total number of token validations by result.",
				ConstLabels: prometheus.Labels{
					"service": service,
				},
			},
			[]string{"result"},
		),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_auth_validation_duration_seconds",
				Help:    "Token validation duration in seconds.",
				Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
				ConstLabels: prometheus.Labels{
					"service": service,
				},
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.validationsTotal, m.validationDuration)

	return m
}

// RecordValidation records one validation outcome. The result label is
// "success" or the error code the failure maps to.
func (m *Metrics) RecordValidation(result string, duration time.Duration) {
	m.validationsTotal.WithLabelValues(result).Inc()
	m.validationDuration.WithLabelValues(result).Observe(duration.Seconds())
}

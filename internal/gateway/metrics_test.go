package gateway

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The series names are a dashboard contract shared with the other
// gateway deployments; every gateway metric carries the gateway_
// prefix.
func TestMetrics_SeriesNames(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegisterer(reg)

	m.RecordCanary(true)
	m.RecordCanary(false)
	m.RecordProxy("documents")
	m.AuthenticatedRequestStarted()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]struct{}, len(families))
	for _, mf := range families {
		names[mf.GetName()] = struct{}{}
	}

	assert.Contains(t, names, "gateway_canary_requests_total")
	assert.Contains(t, names, "gateway_active_authenticated_requests")
	assert.Contains(t, names, "gateway_proxy_requests_total")
}

func TestMetrics_CanaryOutcomes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegisterer(reg)

	m.RecordCanary(true)
	m.RecordCanary(true)
	m.RecordCanary(false)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "gateway_canary_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "authenticated" {
					counts[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}

	assert.Equal(t, float64(2), counts["true"])
	assert.Equal(t, float64(1), counts["false"])
}

func TestMetrics_ActiveRequestGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegisterer(reg)

	m.AuthenticatedRequestStarted()
	m.AuthenticatedRequestStarted()
	m.AuthenticatedRequestFinished()

	families, err := reg.Gather()
	require.NoError(t, err)

	var value float64
	for _, mf := range families {
		if mf.GetName() == "gateway_active_authenticated_requests" {
			value = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}

	assert.Equal(t, float64(1), value)
}

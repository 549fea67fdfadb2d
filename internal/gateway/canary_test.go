package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanaryDecide_PublicPaths(t *testing.T) {
	t.Parallel()

	canary := NewCanary(true, 50, []string{"/", "/health"}, []string{"/docs"})

	assert.Equal(t, DecisionPublic, canary.Decide("/"))
	assert.Equal(t, DecisionPublic, canary.Decide("/health"))
	assert.Equal(t, DecisionPublic, canary.Decide("/docs"))
	assert.Equal(t, DecisionPublic, canary.Decide("/docs/openapi.json"))
	assert.NotEqual(t, DecisionPublic, canary.Decide("/healthz"))
	assert.NotEqual(t, DecisionPublic, canary.Decide("/api/documents"))
}

func TestCanaryDecide_ZeroPercent(t *testing.T) {
	t.Parallel()

	canary := NewCanary(true, 0, nil, nil)

	for i := 0; i < 1000; i++ {
		assert.Equal(t, DecisionSkip, canary.Decide("/api/documents"))
	}
}

func TestCanaryDecide_HundredPercent(t *testing.T) {
	t.Parallel()

	canary := NewCanary(true, 100, nil, nil)

	for i := 0; i < 1000; i++ {
		assert.Equal(t, DecisionEnforce, canary.Decide("/api/documents"))
	}
}

func TestCanaryDecide_Disabled(t *testing.T) {
	t.Parallel()

	canary := NewCanary(false, 0, []string{"/health"}, nil)

	assert.Equal(t, DecisionPublic, canary.Decide("/health"))
	for i := 0; i < 100; i++ {
		assert.Equal(t, DecisionEnforce, canary.Decide("/api/documents"))
	}
}

func TestCanaryDecide_SamplerThreshold(t *testing.T) {
	t.Parallel()

	sample := 0
	canary := NewCanary(true, 30, nil, nil,
		WithCanarySampler(func() int { return sample }),
	)

	// Samples strictly below the percentage enforce; the boundary does
	// not.
	sample = 0
	assert.Equal(t, DecisionEnforce, canary.Decide("/api/documents"))
	sample = 29
	assert.Equal(t, DecisionEnforce, canary.Decide("/api/documents"))
	sample = 30
	assert.Equal(t, DecisionSkip, canary.Decide("/api/documents"))
	sample = 99
	assert.Equal(t, DecisionSkip, canary.Decide("/api/documents"))
}

func TestCanaryDecide_Distribution(t *testing.T) {
	t.Parallel()

	// Deterministic cycle through all sample values: exactly half the
	// draws fall below 50.
	sample := -1
	canary := NewCanary(true, 50, nil, nil,
		WithCanarySampler(func() int {
			sample = (sample + 1) % 100
			return sample
		}),
	)

	const trials = 10000
	enforced := 0
	for i := 0; i < trials; i++ {
		if canary.Decide("/api/documents") == DecisionEnforce {
			enforced++
		}
	}

	assert.Equal(t, trials/2, enforced)
}

func TestNewCanary_ClampsPercentage(t *testing.T) {
	t.Parallel()

	over := NewCanary(true, 250, nil, nil)
	for i := 0; i < 100; i++ {
		assert.Equal(t, DecisionEnforce, over.Decide("/x"))
	}

	under := NewCanary(true, -10, nil, nil)
	for i := 0; i < 100; i++ {
		assert.Equal(t, DecisionSkip, under.Decide("/x"))
	}
}

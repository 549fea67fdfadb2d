package gateway

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Decision is the per-request canary outcome.
type Decision int

const (
	// DecisionPublic means the path is public and authentication is not
	// consulted at all.
	DecisionPublic Decision = iota
	// DecisionEnforce means this request falls inside the canary cohort
	// and authentication is enforced.
	DecisionEnforce
	// DecisionSkip means this request falls outside the canary cohort
	// and passes through unauthenticated.
	DecisionSkip
)

// String returns the decision name for logs and metrics.
func (d Decision) String() string {
	switch d {
	case DecisionPublic:
		return "public"
	case DecisionEnforce:
		return "enforce"
	default:
		return "skip"
	}
}

// Canary decides, per request, whether authentication enforcement
// applies. Enforcement rolls out by percentage: each request draws a
// uniform sample in [0,100) and is enforced when the sample falls below
// the configured percentage. Requests are independent; the same client
// may be enforced on one request and not the next, which is what
// exposes broken token flows early.
type Canary struct {
	enabled        bool
	percentage     int
	publicPaths    map[string]struct{}
	publicPrefixes []string

	mu      sync.Mutex
	sampler func() int
}

// CanaryOption is a functional option for the canary.
type CanaryOption func(*Canary)

// WithCanarySampler sets the sample source. The function must return
// values in [0,100). Tests pass a deterministic source.
func WithCanarySampler(sampler func() int) CanaryOption {
	return func(c *Canary) {
		c.sampler = sampler
	}
}

// NewCanary creates a canary with the given rollout percentage and
// public path lists. Percentages are clamped to [0,100]. A disabled
// canary enforces every non-public request: the canary is the gradual
// rollout mechanism, and turning it off means the rollout is complete.
func NewCanary(enabled bool, percentage int, publicPaths, publicPrefixes []string, opts ...CanaryOption) *Canary {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	c := &Canary{
		enabled:        enabled,
		percentage:     percentage,
		publicPaths:    make(map[string]struct{}, len(publicPaths)),
		publicPrefixes: publicPrefixes,
	}

	for _, path := range publicPaths {
		c.publicPaths[path] = struct{}{}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // rollout sampling, not security
	c.sampler = func() int {
		return rng.Intn(100)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Decide returns the enforcement decision for a request path.
func (c *Canary) Decide(path string) Decision {
	if c.isPublic(path) {
		return DecisionPublic
	}

	if !c.enabled {
		return DecisionEnforce
	}

	c.mu.Lock()
	sample := c.sampler()
	c.mu.Unlock()

	if sample < c.percentage {
		return DecisionEnforce
	}
	return DecisionSkip
}

// isPublic checks the path against exact public paths and public
// prefixes.
func (c *Canary) isPublic(path string) bool {
	if _, ok := c.publicPaths[path]; ok {
		return true
	}
	for _, prefix := range c.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Package gateway implements the edge HTTP server: canary rollout of
// authentication enforcement, reverse proxying to downstream services,
// and the gateway's own health, metrics and admin endpoints.
package gateway

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cortexhq/cortex-auth/internal/observability"
)

// Defaults for the authentication settings. These match the platform
// auth service and must stay in lockstep with it.
const (
	DefaultIssuer     = "cortex-auth-service"
	DefaultClockSkew  = 60 * time.Second
	DefaultCookieName = "cortex_access_token"
)

// Config is the root gateway configuration.
type Config struct {
	Log     observability.LogConfig `yaml:"log"`
	Auth    AuthConfig              `yaml:"auth"`
	Canary  CanaryConfig            `yaml:"canary"`
	Gateway GatewayConfig           `yaml:"gateway"`
}

// AuthConfig configures token verification.
type AuthConfig struct {
	// Enabled turns authentication off globally when false. Requests
	// then carry a fixed placeholder identity. Test environments only.
	// Omitting the flag means enabled; disabling must be explicit.
	Enabled *bool `yaml:"enabled"`
	// Issuer is the expected iss claim.
	Issuer string `yaml:"issuer"`
	// ClockSkew is the tolerance applied to expiry checks.
	ClockSkew Duration `yaml:"clockSkew"`
	// CookieName is the cookie carrying the access token.
	CookieName string `yaml:"cookieName"`
	// PublicKey is an inline PEM public key. Takes priority over
	// PublicKeyPath.
	PublicKey string `yaml:"publicKey"`
	// PublicKeyPath is a path to a PEM public key file.
	PublicKeyPath string `yaml:"publicKeyPath"`
}

// CanaryConfig configures the gradual enforcement rollout.
type CanaryConfig struct {
	// Enabled turns percentage sampling on. When false, every
	// non-public request is enforced.
	Enabled bool `yaml:"enabled"`
	// Percentage of requests to enforce, 0 to 100.
	Percentage int `yaml:"percentage"`
}

// GatewayConfig configures the HTTP server and routing.
type GatewayConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
	// PublicPaths are exact paths that bypass authentication.
	PublicPaths []string `yaml:"publicPaths"`
	// PublicPrefixes are path prefixes that bypass authentication.
	PublicPrefixes []string `yaml:"publicPrefixes"`
	// Routes is the downstream service routing table.
	Routes []RouteConfig `yaml:"routes"`
}

// RouteConfig maps a path prefix to a downstream service.
type RouteConfig struct {
	Name         string `yaml:"name"`
	Prefix       string `yaml:"prefix"`
	Target       string `yaml:"target"`
	PreservePath bool   `yaml:"preservePath"`
}

// IsEnabled reports whether authentication is enabled. A nil flag
// counts as enabled so that an omitted setting can never fail open.
func (a AuthConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	enabled := true
	return &Config{
		Log: observability.DefaultLogConfig(),
		Auth: AuthConfig{
			Enabled:    &enabled,
			Issuer:     DefaultIssuer,
			ClockSkew:  Duration(DefaultClockSkew),
			CookieName: DefaultCookieName,
		},
		Canary: CanaryConfig{
			Enabled:    true,
			Percentage: 10,
		},
		Gateway: GatewayConfig{
			Listen:          ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			PublicPaths:     []string{"/", "/health", "/metrics"},
		},
	}
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = def.Log.Output
	}
	if c.Auth.Enabled == nil {
		c.Auth.Enabled = def.Auth.Enabled
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = def.Auth.Issuer
	}
	if c.Auth.ClockSkew == 0 {
		c.Auth.ClockSkew = def.Auth.ClockSkew
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = def.Auth.CookieName
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = def.Gateway.Listen
	}
	if c.Gateway.ReadTimeout == 0 {
		c.Gateway.ReadTimeout = def.Gateway.ReadTimeout
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = def.Gateway.WriteTimeout
	}
	if c.Gateway.ShutdownTimeout == 0 {
		c.Gateway.ShutdownTimeout = def.Gateway.ShutdownTimeout
	}
	if c.Gateway.PublicPaths == nil {
		c.Gateway.PublicPaths = def.Gateway.PublicPaths
	}
}

// Validate checks the configuration for errors. Misconfiguration is
// fatal at startup; the gateway never falls back to a permissive mode.
func (c *Config) Validate() error {
	if c.Auth.IsEnabled() && c.Auth.PublicKey == "" && c.Auth.PublicKeyPath == "" {
		return fmt.Errorf("auth: publicKey or publicKeyPath is required when authentication is enabled")
	}
	if c.Auth.ClockSkew < 0 {
		return fmt.Errorf("auth: clockSkew must not be negative")
	}
	if c.Canary.Percentage < 0 || c.Canary.Percentage > 100 {
		return fmt.Errorf("canary: percentage must be between 0 and 100, got %d", c.Canary.Percentage)
	}

	names := make(map[string]struct{}, len(c.Gateway.Routes))
	for i, route := range c.Gateway.Routes {
		if route.Name == "" {
			return fmt.Errorf("gateway: route %d has no name", i)
		}
		if _, dup := names[route.Name]; dup {
			return fmt.Errorf("gateway: duplicate route name %q", route.Name)
		}
		names[route.Name] = struct{}{}

		if !strings.HasPrefix(route.Prefix, "/") {
			return fmt.Errorf("gateway: route %s prefix %q must start with /", route.Name, route.Prefix)
		}
		if route.Target == "" {
			return fmt.Errorf("gateway: route %s has no target", route.Name)
		}
	}

	return nil
}

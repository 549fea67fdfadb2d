package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool {
	return &b
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.PublicKeyPath = "/etc/cortex-gateway/jwt_public.pem"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.True(t, cfg.Auth.IsEnabled())
	assert.Equal(t, "cortex-auth-service", cfg.Auth.Issuer)
	assert.Equal(t, 60*time.Second, cfg.Auth.ClockSkew.Duration())
	assert.Equal(t, "cortex_access_token", cfg.Auth.CookieName)
	assert.True(t, cfg.Canary.Enabled)
	assert.Equal(t, 10, cfg.Canary.Percentage)
	assert.Contains(t, cfg.Gateway.PublicPaths, "/health")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:   "auth disabled needs no key",
			mutate: func(c *Config) { c.Auth.Enabled = boolPtr(false); c.Auth.PublicKeyPath = "" },
		},
		{
			name:    "auth enabled needs key material",
			mutate:  func(c *Config) { c.Auth.PublicKeyPath = "" },
			wantErr: "publicKey",
		},
		{
			name:    "negative clock skew",
			mutate:  func(c *Config) { c.Auth.ClockSkew = Duration(-time.Second) },
			wantErr: "clockSkew",
		},
		{
			name:    "percentage over 100",
			mutate:  func(c *Config) { c.Canary.Percentage = 101 },
			wantErr: "percentage",
		},
		{
			name:    "negative percentage",
			mutate:  func(c *Config) { c.Canary.Percentage = -1 },
			wantErr: "percentage",
		},
		{
			name: "route without name",
			mutate: func(c *Config) {
				c.Gateway.Routes = []RouteConfig{{Prefix: "/api/x", Target: "http://x:8000"}}
			},
			wantErr: "no name",
		},
		{
			name: "duplicate route names",
			mutate: func(c *Config) {
				c.Gateway.Routes = []RouteConfig{
					{Name: "x", Prefix: "/api/x", Target: "http://x:8000"},
					{Name: "x", Prefix: "/api/y", Target: "http://y:8000"},
				}
			},
			wantErr: "duplicate",
		},
		{
			name: "route prefix without slash",
			mutate: func(c *Config) {
				c.Gateway.Routes = []RouteConfig{{Name: "x", Prefix: "api/x", Target: "http://x:8000"}}
			},
			wantErr: "prefix",
		},
		{
			name: "route without target",
			mutate: func(c *Config) {
				c.Gateway.Routes = []RouteConfig{{Name: "x", Prefix: "/api/x"}}
			},
			wantErr: "target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	yaml := `
auth:
  enabled: true
  issuer: custom-issuer
  clockSkew: 30s
  publicKeyPath: /keys/public.pem
canary:
  enabled: true
  percentage: 25
gateway:
  listen: ":9090"
  routes:
    - name: documents
      prefix: /api/documents
      target: http://documents:8000
    - name: presentations
      prefix: /api/presentations
      target: http://presentations:8000
      preservePath: true
`

	cfg, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "custom-issuer", cfg.Auth.Issuer)
	assert.Equal(t, 30*time.Second, cfg.Auth.ClockSkew.Duration())
	assert.Equal(t, ":9090", cfg.Gateway.Listen)
	require.Len(t, cfg.Gateway.Routes, 2)
	assert.True(t, cfg.Gateway.Routes[1].PreservePath)

	// Defaults fill the gaps.
	assert.Equal(t, DefaultCookieName, cfg.Auth.CookieName)
	assert.Equal(t, "info", cfg.Log.Level)
}

// An omitted auth.enabled flag must mean enabled. Anything else lets a
// config that forgot the flag start the gateway wide open on the
// placeholder identity.
func TestLoadFromReader_OmittedAuthEnabledFailsClosed(t *testing.T) {
	t.Parallel()

	t.Run("omitted means enabled", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFromReader(strings.NewReader("auth:\n  issuer: custom-issuer\n"))
		require.NoError(t, err)

		assert.True(t, cfg.Auth.IsEnabled())

		// Enabled auth without key material must refuse to start.
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "publicKey")
	})

	t.Run("explicit false stays disabled", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFromReader(strings.NewReader("auth:\n  enabled: false\n"))
		require.NoError(t, err)

		assert.False(t, cfg.Auth.IsEnabled())
		assert.NoError(t, cfg.Validate())
	})

	t.Run("explicit true requires key material", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFromReader(strings.NewReader("auth:\n  enabled: true\n"))
		require.NoError(t, err)

		assert.True(t, cfg.Auth.IsEnabled())
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("auth: [broken"))
	assert.Error(t, err)
}

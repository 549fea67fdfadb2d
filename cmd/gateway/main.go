// Package main is the entry point for the Cortex API gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/cortexhq/cortex-auth/internal/auth"
	"github.com/cortexhq/cortex-auth/internal/config"
	"github.com/cortexhq/cortex-auth/internal/gateway"
	"github.com/cortexhq/cortex-auth/internal/middleware"
	"github.com/cortexhq/cortex-auth/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	server := initServer(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Fatal("gateway failed", observability.Error(err))
	}

	logger.Info("gateway stopped")
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("GATEWAY_CONFIG_PATH", "configs/gateway.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("GATEWAY_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("GATEWAY_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("cortex-gateway version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return logger
}

// loadAndValidateConfig loads and validates the configuration.
// Misconfiguration is fatal; the gateway never starts permissive.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting cortex-gateway",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	resolved, err := config.ResolveConfigPath(configPath)
	if err != nil {
		logger.Fatal("failed to locate configuration", observability.Error(err))
	}

	cfg, err := config.Load(resolved)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.Bool("auth_enabled", cfg.Auth.IsEnabled()),
		observability.Bool("canary_enabled", cfg.Canary.Enabled),
		observability.Int("canary_percentage", cfg.Canary.Percentage),
		observability.Int("routes", len(cfg.Gateway.Routes)),
	)

	if !cfg.Auth.IsEnabled() {
		logger.Warn("authentication is DISABLED; all requests use the placeholder identity")
	}

	return cfg
}

// initServer assembles the gateway server from the configuration.
func initServer(cfg *config.Config, logger observability.Logger) *gateway.Server {
	gateOpts := []middleware.GateOption{
		middleware.WithGateLogger(logger),
		middleware.WithGateCookieName(cfg.Auth.CookieName),
	}
	if !cfg.Auth.IsEnabled() {
		gateOpts = append(gateOpts, middleware.WithGateDisabled())
	}

	var gate *middleware.Gate
	if cfg.Auth.IsEnabled() {
		key, err := auth.LoadPublicKey(cfg.Auth.PublicKey, cfg.Auth.PublicKeyPath)
		if err != nil {
			logger.Fatal("failed to load verification key", observability.Error(err))
		}

		codec, err := auth.NewCodec(key, cfg.Auth.Issuer, cfg.Auth.ClockSkew.Duration(),
			auth.WithCodecLogger(logger),
			auth.WithCodecMetrics(auth.NewMetrics("gateway")),
		)
		if err != nil {
			logger.Fatal("failed to create token codec", observability.Error(err))
		}

		gate = middleware.NewGate(codec, gateOpts...)
	} else {
		gate = middleware.NewGate(nil, gateOpts...)
	}

	canary := gateway.NewCanary(
		cfg.Canary.Enabled,
		cfg.Canary.Percentage,
		cfg.Gateway.PublicPaths,
		cfg.Gateway.PublicPrefixes,
	)

	metrics := gateway.NewMetrics()
	proxy := buildProxy(cfg, metrics, logger)

	return gateway.NewServer(cfg, gate, canary, proxy, metrics, logger)
}

// buildProxy builds the downstream routing table.
func buildProxy(cfg *config.Config, metrics *gateway.Metrics, logger observability.Logger) *gateway.Proxy {
	routes := make([]gateway.Route, 0, len(cfg.Gateway.Routes))
	for _, rc := range cfg.Gateway.Routes {
		target, err := url.Parse(rc.Target)
		if err != nil {
			logger.Fatal("invalid route target",
				observability.String("route", rc.Name),
				observability.Error(err),
			)
		}

		routes = append(routes, gateway.Route{
			Name:         rc.Name,
			Prefix:       rc.Prefix,
			Target:       target,
			PreservePath: rc.PreservePath,
		})
	}

	proxy, err := gateway.NewProxy(routes, metrics, logger)
	if err != nil {
		logger.Fatal("failed to build proxy", observability.Error(err))
	}

	return proxy
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

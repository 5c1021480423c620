// Package config provides configuration management for childenv's
// launcher and inspection tooling. The filter core is configured by
// exactly one thing, the CHILD_ENV_RULES variable, and takes nothing
// from here.
package config

import (
	"fmt"
	"time"

	"github.com/victoralfred/childenv/observability"
)

// Config is the main configuration for the childenv tooling.
type Config struct {
	Telemetry       observability.TelemetryConfig
	Audit           observability.AuditConfig
	Launcher        LauncherConfig
	ProfilePath     string
	ProfileBasePath string
}

// LauncherConfig configures the launcher.
type LauncherConfig struct {
	// DefaultProfile is used when no profile is named.
	DefaultProfile string

	// WatchInterval reloads the profile file periodically when set.
	WatchInterval time.Duration

	// ScanInterval paces verification polling of launched targets.
	ScanInterval time.Duration

	// EnableMetrics toggles launch metrics.
	EnableMetrics bool

	// EnableAudit toggles the launch audit trail.
	EnableAudit bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Launcher: LauncherConfig{
			DefaultProfile: "default",
			ScanInterval:   100 * time.Millisecond,
			EnableMetrics:  true,
			EnableAudit:    true,
		},
		Telemetry:       observability.DefaultTelemetryConfig(),
		Audit:           observability.DefaultAuditConfig(),
		ProfilePath:     "profiles.yaml",
		ProfileBasePath: "/etc/childenv",
	}
}

// DevelopmentConfig returns configuration suitable for development.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Launcher.WatchInterval = 2 * time.Second
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Telemetry.Environment = "development"
	return cfg
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Audit.LogLevel = observability.AuditLogFailures
	cfg.Telemetry.Environment = "production"
	return cfg
}

// Validate validates the configuration, normalizing zero values.
func (c *Config) Validate() error {
	if c.ProfilePath == "" {
		return fmt.Errorf("config: profile path is required")
	}
	if c.ProfileBasePath == "" {
		return fmt.Errorf("config: profile base path is required")
	}
	if c.Launcher.ScanInterval <= 0 {
		c.Launcher.ScanInterval = 100 * time.Millisecond
	}
	if c.Audit.Enabled && c.Audit.FilePath == "" {
		return fmt.Errorf("config: audit file path is required when audit is enabled")
	}
	return nil
}

// Package config handles optional TOML configuration for the plugin host.
// The host's required runtime parameters (port, log directory, Wox pid)
// arrive as positional CLI args per spec.md §6 and are never duplicated
// here; this package covers only the ambient knobs layered on top —
// logging level, the debug introspection server, and the
// SPEC_FULL.md §13 hardening knobs. It loads from wox-plugin-host.toml if
// present, applies WOXHOST_-prefixed environment overrides, validates, and
// falls back to defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the host's optional configuration.
type Config struct {
	Logging     LoggingConfig     `toml:"logging"`
	DebugServer DebugServerConfig `toml:"debug_server"`
	Hardening   HardeningConfig   `toml:"hardening"`
}

// LoggingConfig controls the log sink's (C1) minimum level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DebugServerConfig controls the optional read-only introspection HTTP
// server (not part of spec.md's external interfaces; purely a local
// operability aid, grounded in the teacher's chi-based API server).
type DebugServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// HardeningConfig holds the SPEC_FULL.md §13 knobs. Both default to 0,
// preserving spec.md's original unmodified semantics (unbounded action
// concurrency, no outbound call timeout) unless explicitly opted into.
type HardeningConfig struct {
	ActionConcurrencyLimit int `toml:"action_concurrency_limit"`
	OutboundCallTimeoutMs  int `toml:"outbound_call_timeout_ms"`
}

// defaults returns a Config with sane default values for all fields.
func defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		DebugServer: DebugServerConfig{
			Enabled: false,
			Listen:  "127.0.0.1:7090",
		},
		Hardening: HardeningConfig{
			ActionConcurrencyLimit: 0,
			OutboundCallTimeoutMs:  0,
		},
	}
}

// Load reads the configuration from the given TOML file path, applies
// defaults for missing values, and then applies environment variable
// overrides. A missing file is not an error: the host runs entirely off
// CLI args and defaults if no config file is present.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			if err := validate(&cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config fields with environment variables
// when set. Environment variables use the prefix WOXHOST_ followed by the
// section and field name in uppercase with underscores (e.g.
// WOXHOST_LOGGING_LEVEL).
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WOXHOST_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("WOXHOST_DEBUG_SERVER_ENABLED"); v != "" {
		cfg.DebugServer.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("WOXHOST_DEBUG_SERVER_LISTEN"); v != "" {
		cfg.DebugServer.Listen = v
	}

	if v := os.Getenv("WOXHOST_HARDENING_ACTION_CONCURRENCY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Hardening.ActionConcurrencyLimit = n
		}
	}
	if v := os.Getenv("WOXHOST_HARDENING_OUTBOUND_CALL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Hardening.OutboundCallTimeoutMs = n
		}
	}
}

// validate checks that the configuration's fields are internally
// consistent.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("config: logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level)
	}

	if cfg.DebugServer.Enabled && cfg.DebugServer.Listen == "" {
		return fmt.Errorf("config: debug_server.listen is required when debug_server.enabled is true")
	}

	if cfg.Hardening.ActionConcurrencyLimit < 0 {
		return fmt.Errorf("config: hardening.action_concurrency_limit must be >= 0")
	}
	if cfg.Hardening.OutboundCallTimeoutMs < 0 {
		return fmt.Errorf("config: hardening.outbound_call_timeout_ms must be >= 0")
	}

	return nil
}

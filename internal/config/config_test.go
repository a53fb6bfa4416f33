package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.Logging.Level != "info" {
		t.Errorf("default logging.level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.DebugServer.Enabled {
		t.Error("default debug_server.enabled should be false")
	}
	if cfg.DebugServer.Listen != "127.0.0.1:7090" {
		t.Errorf("default debug_server.listen = %q, want %q", cfg.DebugServer.Listen, "127.0.0.1:7090")
	}
	if cfg.Hardening.ActionConcurrencyLimit != 0 {
		t.Errorf("default hardening.action_concurrency_limit = %d, want 0", cfg.Hardening.ActionConcurrencyLimit)
	}
	if cfg.Hardening.OutboundCallTimeoutMs != 0 {
		t.Errorf("default hardening.outbound_call_timeout_ms = %d, want 0", cfg.Hardening.OutboundCallTimeoutMs)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/wox-plugin-host.toml")
	if err != nil {
		t.Fatalf("Load non-existent file should use defaults, got error: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wox-plugin-host.toml")
	content := `
[logging]
level = "debug"

[debug_server]
enabled = true
listen = "127.0.0.1:9191"

[hardening]
action_concurrency_limit = 4
outbound_call_timeout_ms = 5000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.DebugServer.Enabled {
		t.Error("debug_server.enabled should be true")
	}
	if cfg.DebugServer.Listen != "127.0.0.1:9191" {
		t.Errorf("debug_server.listen = %q, want %q", cfg.DebugServer.Listen, "127.0.0.1:9191")
	}
	if cfg.Hardening.ActionConcurrencyLimit != 4 {
		t.Errorf("hardening.action_concurrency_limit = %d, want 4", cfg.Hardening.ActionConcurrencyLimit)
	}
	if cfg.Hardening.OutboundCallTimeoutMs != 5000 {
		t.Errorf("hardening.outbound_call_timeout_ms = %d, want 5000", cfg.Hardening.OutboundCallTimeoutMs)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wox-plugin-host.toml")
	if err := os.WriteFile(path, []byte("not valid toml [[["), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load should fail on invalid TOML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"invalid log level",
			`[logging]
level = "trace"`,
		},
		{
			"debug server enabled with empty listen",
			`[debug_server]
enabled = true
listen = ""`,
		},
		{
			"negative action concurrency limit",
			`[hardening]
action_concurrency_limit = -1`,
		},
		{
			"negative outbound call timeout",
			`[hardening]
outbound_call_timeout_ms = -1`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "wox-plugin-host.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WOXHOST_LOGGING_LEVEL", "warn")
	t.Setenv("WOXHOST_DEBUG_SERVER_ENABLED", "true")
	t.Setenv("WOXHOST_DEBUG_SERVER_LISTEN", "127.0.0.1:7777")
	t.Setenv("WOXHOST_HARDENING_ACTION_CONCURRENCY_LIMIT", "8")
	t.Setenv("WOXHOST_HARDENING_OUTBOUND_CALL_TIMEOUT_MS", "1500")

	cfg, err := Load("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if !cfg.DebugServer.Enabled {
		t.Error("debug_server.enabled should be true via env")
	}
	if cfg.DebugServer.Listen != "127.0.0.1:7777" {
		t.Errorf("debug_server.listen = %q, want %q", cfg.DebugServer.Listen, "127.0.0.1:7777")
	}
	if cfg.Hardening.ActionConcurrencyLimit != 8 {
		t.Errorf("hardening.action_concurrency_limit = %d, want 8", cfg.Hardening.ActionConcurrencyLimit)
	}
	if cfg.Hardening.OutboundCallTimeoutMs != 1500 {
		t.Errorf("hardening.outbound_call_timeout_ms = %d, want 1500", cfg.Hardening.OutboundCallTimeoutMs)
	}
}

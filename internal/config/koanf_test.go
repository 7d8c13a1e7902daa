// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Feed.URL != "ws://localhost:8000/ws/frontend" {
		t.Errorf("Feed.URL = %q, want ws://localhost:8000/ws/frontend", cfg.Feed.URL)
	}
	if cfg.Feed.ReconnectMin != time.Second || cfg.Feed.ReconnectMax != 32*time.Second {
		t.Errorf("Feed reconnect bounds = %v..%v, want 1s..32s", cfg.Feed.ReconnectMin, cfg.Feed.ReconnectMax)
	}
	if cfg.Engine.LivenessInterval != 500*time.Millisecond {
		t.Errorf("Engine.LivenessInterval = %v, want 500ms", cfg.Engine.LivenessInterval)
	}
	if cfg.Engine.FeedCapacity != 500 {
		t.Errorf("Engine.FeedCapacity = %d, want 500", cfg.Engine.FeedCapacity)
	}
	if cfg.API.DefaultPageSize != 8 {
		t.Errorf("API.DefaultPageSize = %d, want 8", cfg.API.DefaultPageSize)
	}
	if cfg.Mirror.Enabled {
		t.Error("Mirror.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
	chdirTemp(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Server.Port = %d, want 8090", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8090" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lanwatch.yaml")
	content := `
feed:
  url: wss://monitor.lan/ws/frontend
  reconnect_max: 16s
engine:
  feed_capacity: 50
mirror:
  enabled: true
  url: nats://broker.lan:4222
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Feed.URL != "wss://monitor.lan/ws/frontend" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Feed.ReconnectMax != 16*time.Second {
		t.Errorf("Feed.ReconnectMax = %v, want 16s", cfg.Feed.ReconnectMax)
	}
	if cfg.Feed.ReconnectMin != time.Second {
		t.Errorf("Feed.ReconnectMin should keep its default, got %v", cfg.Feed.ReconnectMin)
	}
	if cfg.Engine.FeedCapacity != 50 {
		t.Errorf("Engine.FeedCapacity = %d, want 50", cfg.Engine.FeedCapacity)
	}
	if !cfg.Mirror.Enabled || cfg.Mirror.URL != "nats://broker.lan:4222" {
		t.Errorf("Mirror = %+v", cfg.Mirror)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadWithKoanf_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("FEED_URL", "ws://10.0.0.5:8000/ws/frontend")
	t.Setenv("LIVENESS_INTERVAL", "250ms")
	t.Setenv("CORS_ORIGINS", "http://a.lan, http://b.lan")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100 (env beats file)", cfg.Server.Port)
	}
	if cfg.Feed.URL != "ws://10.0.0.5:8000/ws/frontend" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Engine.LivenessInterval != 250*time.Millisecond {
		t.Errorf("Engine.LivenessInterval = %v, want 250ms", cfg.Engine.LivenessInterval)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "http://b.lan" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_InvalidFeedURL(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
	chdirTemp(t)
	t.Setenv("FEED_URL", "http://localhost:8000/ws/frontend")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected validation error for http feed URL")
	}
	if !strings.Contains(err.Error(), "feed.url") {
		t.Errorf("error should name feed.url: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"FEED_URL":           "feed.url",
		"LOG_LEVEL":          "logging.level",
		"NATS_URL":           "mirror.url",
		"FEED_CAPACITY":      "engine.feed_capacity",
		"DISABLE_RATE_LIMIT": "security.rate_limit_disabled",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

// chdirTemp moves into an empty directory so a stray config.yaml in the
// package directory cannot leak into the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

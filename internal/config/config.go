// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package config loads LANWatch configuration.
//
// Sources are layered with koanf, later layers winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, or the first of DefaultConfigPaths)
//  3. Environment variables (see envMappings)
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import "time"

// Config is the complete runtime configuration.
type Config struct {
	Feed       FeedConfig       `koanf:"feed"`
	Engine     EngineConfig     `koanf:"engine"`
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Security   SecurityConfig   `koanf:"security"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Mirror     MirrorConfig     `koanf:"mirror"` // Optional: republish envelopes to NATS
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// FeedConfig describes the upstream event feed connection.
//
// Environment Variables:
//   - FEED_URL: WebSocket endpoint (default: ws://localhost:8000/ws/frontend)
//   - FEED_RECONNECT_MIN / FEED_RECONNECT_MAX: backoff bounds (default: 1s / 32s)
type FeedConfig struct {
	URL              string        `koanf:"url" validate:"required,wsurl"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	ReadTimeout      time.Duration `koanf:"read_timeout" validate:"gt=0"`
	PingInterval     time.Duration `koanf:"ping_interval" validate:"gt=0"`
	ReconnectMin     time.Duration `koanf:"reconnect_min" validate:"gt=0"`
	ReconnectMax     time.Duration `koanf:"reconnect_max" validate:"gt=0"`

	// BreakerFailures is the number of consecutive failed dials that opens the
	// circuit breaker. While open, dials are skipped until BreakerTimeout elapses.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// EngineConfig tunes the reconciler and liveness poll.
type EngineConfig struct {
	// LivenessInterval is how often the transport's connection flag is re-read.
	LivenessInterval time.Duration `koanf:"liveness_interval" validate:"gt=0"`

	// FeedCapacity bounds the event feed ring buffer. The oldest entry is
	// evicted when a new one arrives at capacity.
	FeedCapacity int `koanf:"feed_capacity" validate:"min=1,max=100000"`

	// QueueSize is the reconciler inbox capacity.
	QueueSize int `koanf:"queue_size" validate:"min=1"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// APIConfig holds pagination defaults for the read API.
type APIConfig struct {
	DefaultPageSize   int `koanf:"default_page_size" validate:"min=1"`
	MaxPageSize       int `koanf:"max_page_size" validate:"min=1"`
	DefaultEventLimit int `koanf:"default_event_limit" validate:"min=1"`
}

// SecurityConfig holds rate limiting and CORS settings for the read API.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// WebSocketConfig controls the downstream viewer hub.
type WebSocketConfig struct {
	Enabled         bool  `koanf:"enabled"`
	BroadcastBuffer int   `koanf:"broadcast_buffer" validate:"min=1"`
	MaxMessageSize  int64 `koanf:"max_message_size" validate:"min=512"`
}

// MirrorConfig controls republishing of applied envelopes to NATS.
//
// Environment Variables:
//   - MIRROR_ENABLED: true/false (default: false)
//   - NATS_URL: broker URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: run an in-process nats-server (default: false)
type MirrorConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	EmbeddedPort   int           `koanf:"embedded_port"`
	SubjectPrefix  string        `koanf:"subject_prefix"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// SupervisorConfig mirrors suture.Spec tuning.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

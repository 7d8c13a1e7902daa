// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package metrics holds the Prometheus instrumentation for LANWatch.
// Collectors register with the default registry on package init and are
// exposed on /metrics by the API router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanwatch_frames_received_total",
			Help: "Total number of raw frames read from the event feed",
		},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanwatch_frames_dropped_total",
			Help: "Total number of frames or events dropped without being applied",
		},
		[]string{"reason"}, // "malformed", "unrecognized", "queue_full"
	)

	EnvelopesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanwatch_envelopes_applied_total",
			Help: "Total number of envelopes applied by the reconciler",
		},
		[]string{"kind"}, // models.EnvelopeKind values plus "stats"
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lanwatch_reconcile_duration_seconds",
			Help:    "Time to apply one message and publish the resulting snapshot",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	// State Metrics
	RosterDevices = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lanwatch_roster_devices",
			Help: "Current number of devices in the local roster",
		},
		[]string{"status"},
	)

	FeedEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanwatch_feed_evictions_total",
			Help: "Total number of event feed entries evicted at capacity",
		},
	)

	ARPRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lanwatch_arp_rate_per_minute",
			Help: "Last computed ARP request rate per minute",
		},
	)

	RateSamples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanwatch_arp_rate_samples_total",
			Help: "Total number of metric samples seen by the rate calculator",
		},
		[]string{"outcome"}, // "first", "updated", "skipped"
	)

	SnapshotsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanwatch_snapshots_published_total",
			Help: "Total number of snapshots published",
		},
	)

	SnapshotSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lanwatch_snapshot_subscribers",
			Help: "Current number of snapshot subscribers",
		},
	)

	// Transport Metrics
	FeedConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lanwatch_feed_connected",
			Help: "Whether the event feed connection is up (1) or down (0)",
		},
	)

	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanwatch_feed_reconnect_attempts_total",
			Help: "Total number of event feed reconnect attempts",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Downstream WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lanwatch_ws_viewers",
			Help: "Current number of connected downstream WebSocket viewers",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanwatch_ws_messages_sent_total",
			Help: "Total number of messages pushed to downstream viewers",
		},
	)

	WSSlowClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanwatch_ws_slow_clients_dropped_total",
			Help: "Total number of viewers disconnected for not keeping up",
		},
	)

	// Mirror Metrics
	MirrorPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanwatch_mirror_published_total",
			Help: "Total number of envelopes republished to NATS",
		},
		[]string{"subject", "result"}, // result: "success", "error"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDrop counts a dropped frame or event.
func RecordDrop(reason string) {
	FramesDropped.WithLabelValues(reason).Inc()
}

// SetConnected mirrors the feed liveness flag.
func SetConnected(connected bool) {
	if connected {
		FeedConnected.Set(1)
		return
	}
	FeedConnected.Set(0)
}

// SetRosterCounts updates the roster gauges.
func SetRosterCounts(active, idle int) {
	RosterDevices.WithLabelValues("active").Set(float64(active))
	RosterDevices.WithLabelValues("idle").Set(float64(idle))
}

// RecordMirrorPublish counts one mirror publish attempt.
func RecordMirrorPublish(subject string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	MirrorPublished.WithLabelValues(subject, result).Inc()
}

// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package models

import "time"

// EnvelopeKind names a recognized (type, subtype) pair of the feed.
// The values double as metric labels and mirror subject suffixes.
type EnvelopeKind string

const (
	KindDeviceJoined EnvelopeKind = "topology.joined"
	KindDeviceLeft   EnvelopeKind = "topology.left"
	KindMetric       EnvelopeKind = "metric.periodic"
)

// Meta is the event metadata block. Sequence is the feed's sequence number in
// decimal form, "" when absent. Timestamp is zero when the feed omitted it.
type Meta struct {
	Sequence  string
	Timestamp time.Time
}

// Envelope is a decoded, typed feed event. The concrete types are
// DeviceJoined, DeviceLeft and MetricUpdate.
type Envelope interface {
	Kind() EnvelopeKind
	EventMeta() Meta
}

// DeviceJoined is (TOPOLOGY, DEVICE_JOINED).
type DeviceJoined struct {
	Meta   Meta
	Device DeviceRecord
}

// DeviceLeft is (TOPOLOGY, DEVICE_LEFT).
type DeviceLeft struct {
	Meta     Meta
	DeviceID string
}

// MetricUpdate is (METRIC, PERIODIC_METRIC_STATE).
type MetricUpdate struct {
	Meta    Meta
	Metrics MetricRecord
}

func (e DeviceJoined) Kind() EnvelopeKind { return KindDeviceJoined }
func (e DeviceLeft) Kind() EnvelopeKind   { return KindDeviceLeft }
func (e MetricUpdate) Kind() EnvelopeKind { return KindMetric }

func (e DeviceJoined) EventMeta() Meta { return e.Meta }
func (e DeviceLeft) EventMeta() Meta   { return e.Meta }
func (e MetricUpdate) EventMeta() Meta { return e.Meta }

// SampleTime returns the time the metrics were measured: measure_time when
// present, else the event timestamp. ok is false when neither was sent.
func (e MetricUpdate) SampleTime() (t time.Time, ok bool) {
	if e.Metrics.MeasureTime != nil && !e.Metrics.MeasureTime.IsZero() {
		return *e.Metrics.MeasureTime, true
	}
	if !e.Meta.Timestamp.IsZero() {
		return e.Meta.Timestamp, true
	}
	return time.Time{}, false
}

// Frame is one decoded inbound message. Envelope is nil when the frame had no
// event or an unrecognized one, in which case Unrecognized holds the
// "TYPE/SUBTYPE" pair that was skipped. Stats is nil when dashboard_stats was
// absent.
type Frame struct {
	Envelope     Envelope
	Stats        *DashboardStats
	Unrecognized string
}

// Empty reports whether the frame carries nothing to apply.
func (f Frame) Empty() bool {
	return f.Envelope == nil && f.Stats == nil
}

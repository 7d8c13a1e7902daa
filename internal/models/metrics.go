// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package models

import "time"

// MetricsSnapshot is the last PERIODIC_METRIC_STATE sample. It is replaced
// wholesale on every sample, never merged.
type MetricsSnapshot struct {
	TotalDevices     int64 `json:"totalDevices"`
	ActiveDevices    int64 `json:"activeDevices"`
	DataSent         int64 `json:"dataSent"`
	DataReceived     int64 `json:"dataReceived"`
	BroadcastPackets int64 `json:"broadcastPackets"`
	UnicastPackets   int64 `json:"unicastPackets"`
	ARPRequests      int64 `json:"arpRequests"`
	ARPReplies       int64 `json:"arpReplies"`
}

// MetricRecord is the metrics payload as carried by the feed. It is attached
// verbatim to metric feed entries.
type MetricRecord struct {
	TotalDevices          int64      `json:"total_devices"`
	ActiveDevices         int64      `json:"active_devices"`
	DataSent              int64      `json:"data_sent"`
	DataReceived          int64      `json:"data_received"`
	TotalBroadcastPackets int64      `json:"total_broadcast_packets"`
	TotalUnicastPackets   int64      `json:"total_unicast_packets"`
	ARPRequests           int64      `json:"arp_requests"`
	ARPReplies            int64      `json:"arp_replies"`
	MeasureTime           *time.Time `json:"measure_time,omitempty"`
}

// Clone returns a copy of m, or nil for a nil record.
func (m *MetricRecord) Clone() *MetricRecord {
	if m == nil {
		return nil
	}
	c := *m
	if m.MeasureTime != nil {
		t := *m.MeasureTime
		c.MeasureTime = &t
	}
	return &c
}

// Snapshot converts the wire record into the published metrics shape.
func (m *MetricRecord) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalDevices:     m.TotalDevices,
		ActiveDevices:    m.ActiveDevices,
		DataSent:         m.DataSent,
		DataReceived:     m.DataReceived,
		BroadcastPackets: m.TotalBroadcastPackets,
		UnicastPackets:   m.TotalUnicastPackets,
		ARPRequests:      m.ARPRequests,
		ARPReplies:       m.ARPReplies,
	}
}

// DashboardStats are the server-computed aggregates carried by the feed's
// dashboard_stats field. They are authoritative and never derived from the
// local roster. Fields missing from a frame are zero.
type DashboardStats struct {
	TotalDevices    int64 `json:"totalDevices"`
	ActiveDevices   int64 `json:"activeDevices"`
	IdleDevices     int64 `json:"idleDevices"`
	NewDevicesToday int64 `json:"newDevicesToday"`
}

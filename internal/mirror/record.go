// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package mirror

import (
	"time"

	"github.com/tomtom215/lanwatch/internal/models"
)

// Record is the JSON body of a mirrored message.
type Record struct {
	Kind      string                 `json:"kind"`
	Sequence  string                 `json:"sequence,omitempty"`
	Timestamp *time.Time             `json:"timestamp,omitempty"`
	Device    *DeviceRecord          `json:"device,omitempty"`
	DeviceID  string                 `json:"device_id,omitempty"`
	Metrics   *models.MetricRecord   `json:"metrics,omitempty"`
	Stats     *models.DashboardStats `json:"stats,omitempty"`
}

// DeviceRecord is the device carried by a join record.
type DeviceRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	IP     string `json:"ip,omitempty"`
	MAC    string `json:"mac,omitempty"`
	Vendor string `json:"vendor,omitempty"`
	Type   string `json:"type"`
}

// RecordFromEnvelope converts an applied envelope.
func RecordFromEnvelope(env models.Envelope) Record {
	meta := env.EventMeta()
	rec := Record{
		Kind:     string(env.Kind()),
		Sequence: meta.Sequence,
	}
	if !meta.Timestamp.IsZero() {
		ts := meta.Timestamp.UTC()
		rec.Timestamp = &ts
	}

	switch e := env.(type) {
	case models.DeviceJoined:
		rec.Device = &DeviceRecord{
			ID:     e.Device.ID,
			Name:   e.Device.Name,
			IP:     e.Device.IP,
			MAC:    e.Device.MAC,
			Vendor: e.Device.Vendor,
			Type:   string(e.Device.Type),
		}
	case models.DeviceLeft:
		rec.DeviceID = e.DeviceID
	case models.MetricUpdate:
		m := e.Metrics
		rec.Metrics = &m
	}
	return rec
}

// RecordFromStats converts a stats block.
func RecordFromStats(stats models.DashboardStats) Record {
	return Record{Kind: StatsSubject, Stats: &stats}
}

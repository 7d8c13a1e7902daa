// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package models

import (
	"testing"
	"time"
)

func TestParseDeviceType(t *testing.T) {
	tests := map[string]DeviceType{
		"laptop":  DeviceTypeLaptop,
		" Phone ": DeviceTypeMobile,
		"PRINTER": DeviceTypePrinter,
		"camera":  DeviceTypeIoT,
		"router":  DeviceTypeNetwork,
		"":        DeviceTypeUnknown,
		"toaster": DeviceTypeUnknown,
	}
	for in, want := range tests {
		if got := ParseDeviceType(in); got != want {
			t.Errorf("ParseDeviceType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeviceRecord_DisplayName(t *testing.T) {
	if got := (DeviceRecord{ID: "d1", Name: "nas", IP: "10.0.0.2"}).DisplayName(); got != "nas" {
		t.Errorf("DisplayName() = %q, want nas", got)
	}
	if got := (DeviceRecord{ID: "d1", IP: "10.0.0.2"}).DisplayName(); got != "10.0.0.2" {
		t.Errorf("DisplayName() = %q, want 10.0.0.2", got)
	}
	if got := (DeviceRecord{ID: "d1"}).DisplayName(); got != "d1" {
		t.Errorf("DisplayName() = %q, want d1", got)
	}
}

func TestMetricUpdate_SampleTime(t *testing.T) {
	measured := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stamped := measured.Add(5 * time.Second)

	withBoth := MetricUpdate{Meta: Meta{Timestamp: stamped}, Metrics: MetricRecord{MeasureTime: &measured}}
	if got, ok := withBoth.SampleTime(); !ok || !got.Equal(measured) {
		t.Errorf("SampleTime() = %v, %v; want measure_time", got, ok)
	}

	metaOnly := MetricUpdate{Meta: Meta{Timestamp: stamped}}
	if got, ok := metaOnly.SampleTime(); !ok || !got.Equal(stamped) {
		t.Errorf("SampleTime() = %v, %v; want meta timestamp", got, ok)
	}

	if _, ok := (MetricUpdate{}).SampleTime(); ok {
		t.Error("SampleTime() should report false with no timestamps")
	}
}

func TestMetricRecord_Snapshot(t *testing.T) {
	rec := MetricRecord{
		TotalDevices: 10, ActiveDevices: 7, DataSent: 100, DataReceived: 200,
		TotalBroadcastPackets: 3, TotalUnicastPackets: 4, ARPRequests: 5, ARPReplies: 6,
	}
	want := MetricsSnapshot{
		TotalDevices: 10, ActiveDevices: 7, DataSent: 100, DataReceived: 200,
		BroadcastPackets: 3, UnicastPackets: 4, ARPRequests: 5, ARPReplies: 6,
	}
	if got := rec.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestFrame_Empty(t *testing.T) {
	if !(Frame{}).Empty() {
		t.Error("zero Frame should be empty")
	}
	if (Frame{Stats: &DashboardStats{}}).Empty() {
		t.Error("Frame with stats should not be empty")
	}
}

func TestSnapshot_CloneSharesNothing(t *testing.T) {
	measured := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := Snapshot{
		Devices: []Device{{ID: "aa:bb", Status: StatusActive}},
		Events: []Event{{
			ID:      "7",
			Type:    EventMetric,
			Payload: &MetricRecord{ARPRequests: 40, MeasureTime: &measured},
		}},
		Version: 3,
	}

	c := orig.Clone()
	c.Devices[0].Status = StatusIdle
	c.Events[0].Message = "edited"
	c.Events[0].Payload.ARPRequests = 0
	*c.Events[0].Payload.MeasureTime = time.Time{}

	if orig.Devices[0].Status != StatusActive {
		t.Errorf("device status leaked into original: %q", orig.Devices[0].Status)
	}
	if orig.Events[0].Message != "" || orig.Events[0].Payload.ARPRequests != 40 {
		t.Errorf("event leaked into original: %+v", orig.Events[0])
	}
	if !orig.Events[0].Payload.MeasureTime.Equal(measured) {
		t.Errorf("measure time leaked into original: %v", orig.Events[0].Payload.MeasureTime)
	}
	if c.Version != 3 {
		t.Errorf("Version = %d", c.Version)
	}
}

func TestMetricRecord_CloneNil(t *testing.T) {
	var m *MetricRecord
	if m.Clone() != nil {
		t.Error("Clone of nil record should be nil")
	}
}

// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package decoder turns raw feed frames into typed envelopes.
//
// A frame may carry an event, a dashboard_stats block, both, or neither:
//
//	{
//	  "event": {
//	    "type": "TOPOLOGY", "subtype": "DEVICE_JOINED",
//	    "payload": {"device": {"device_id": "...", "ip_address": "..."}},
//	    "meta": {"sequence": 42, "timestamp": "2026-01-02T15:04:05Z"}
//	  },
//	  "dashboard_stats": {"total_devices": 12, "active_devices": 9, ...}
//	}
//
// Unrecognized (type, subtype) pairs are not errors: the frame decodes with a
// nil Envelope and Frame.Unrecognized set, so newer feed versions keep working.
package decoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/models"
	"github.com/tomtom215/lanwatch/internal/validation"
)

// ErrMalformedFrame is wrapped by every decode failure.
var ErrMalformedFrame = errors.New("malformed frame")

// deviceRef is the identity check shared by DEVICE_JOINED and DEVICE_LEFT.
// Only the id can reject a record.
type deviceRef struct {
	ID string `json:"device_id" validate:"required,max=256"`
}

// displayChecks flag address attributes that look wrong. A failing value is
// kept as sent and only logged, since feeds use bare-hex MACs, CIDR notation
// and placeholders like "unknown".
var displayChecks = []struct {
	field string
	tag   string
	value func(models.DeviceRecord) string
}{
	{"ip_address", "ip", func(d models.DeviceRecord) string { return d.IP }},
	{"mac_address", "mac", func(d models.DeviceRecord) string { return d.MAC }},
}

// Decode parses one raw frame.
//
// When the event part is invalid but dashboard_stats is usable, Decode
// returns the frame with Stats set and Envelope nil together with the
// error, so stats are never lost to a bad sibling event. Callers should apply
// a non-empty frame even when err is non-nil.
func Decode(raw []byte) (models.Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		return models.Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	var frame models.Frame
	if wf.DashboardStats != nil {
		frame.Stats = &models.DashboardStats{
			TotalDevices:    int64(wf.DashboardStats.TotalDevices),
			ActiveDevices:   int64(wf.DashboardStats.ActiveDevices),
			IdleDevices:     int64(wf.DashboardStats.InactiveDevices),
			NewDevicesToday: int64(wf.DashboardStats.NewDevicesToday),
		}
	}

	if wf.Event == nil {
		return frame, nil
	}

	env, err := decodeEvent(wf.Event)
	if err != nil {
		return frame, err
	}
	if env == nil {
		frame.Unrecognized = wf.Event.Type + "/" + wf.Event.Subtype
		return frame, nil
	}
	frame.Envelope = env
	return frame, nil
}

// decodeEvent returns (nil, nil) for an unrecognized pair.
func decodeEvent(ev *wireEvent) (models.Envelope, error) {
	meta := models.Meta{
		Sequence:  string(ev.Meta.Sequence),
		Timestamp: ev.Meta.Timestamp.Time,
	}

	evType := strings.ToUpper(strings.TrimSpace(ev.Type))
	subtype := strings.ToUpper(strings.TrimSpace(ev.Subtype))

	switch {
	case evType == TypeTopology && subtype == SubtypeDeviceJoined:
		return decodeJoined(ev.Payload, meta)
	case evType == TypeTopology && subtype == SubtypeDeviceLeft:
		return decodeLeft(ev.Payload, meta)
	case evType == TypeMetric && subtype == SubtypePeriodicMetricState:
		return decodeMetric(ev.Payload, meta)
	default:
		return nil, nil
	}
}

func decodeJoined(payload json.RawMessage, meta models.Meta) (models.Envelope, error) {
	var p topologyPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: DEVICE_JOINED payload: %v", ErrMalformedFrame, err)
	}
	if p.Device == nil {
		return nil, fmt.Errorf("%w: DEVICE_JOINED payload has no device", ErrMalformedFrame)
	}

	rec := normalizeDevice(p.Device)
	check := deviceRef{ID: rec.ID}
	if verr := validation.ValidateStruct(&check); verr != nil {
		return nil, fmt.Errorf("%w: DEVICE_JOINED device: %s", ErrMalformedFrame, verr.Error())
	}
	flagOddAddresses(rec)
	return models.DeviceJoined{Meta: meta, Device: rec}, nil
}

func flagOddAddresses(rec models.DeviceRecord) {
	v := validation.GetValidator()
	for _, c := range displayChecks {
		val := c.value(rec)
		if val == "" || v.Var(val, c.tag) == nil {
			continue
		}
		logging.Debug().
			Str("component", "decoder").
			Str("device_id", rec.ID).
			Str("field", c.field).
			Str("value", val).
			Msg("Keeping unparseable device address as sent")
	}
}

func decodeLeft(payload json.RawMessage, meta models.Meta) (models.Envelope, error) {
	var p topologyPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: DEVICE_LEFT payload: %v", ErrMalformedFrame, err)
	}
	if p.Device == nil {
		return nil, fmt.Errorf("%w: DEVICE_LEFT payload has no device", ErrMalformedFrame)
	}

	check := deviceRef{ID: deviceID(p.Device)}
	if verr := validation.ValidateStruct(&check); verr != nil {
		return nil, fmt.Errorf("%w: DEVICE_LEFT device: %s", ErrMalformedFrame, verr.Error())
	}
	return models.DeviceLeft{Meta: meta, DeviceID: check.ID}, nil
}

func decodeMetric(payload json.RawMessage, meta models.Meta) (models.Envelope, error) {
	var p metricPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: PERIODIC_METRIC_STATE payload: %v", ErrMalformedFrame, err)
	}
	if p.Metrics == nil {
		return nil, fmt.Errorf("%w: PERIODIC_METRIC_STATE payload has no metrics", ErrMalformedFrame)
	}

	m := p.Metrics
	rec := models.MetricRecord{
		TotalDevices:          int64(m.TotalDevices),
		ActiveDevices:         int64(m.ActiveDevices),
		DataSent:              int64(m.DataSent),
		DataReceived:          int64(m.DataReceived),
		TotalBroadcastPackets: int64(m.TotalBroadcastPackets),
		TotalUnicastPackets:   int64(m.TotalUnicastPackets),
		ARPRequests:           int64(m.ARPRequests),
		ARPReplies:            int64(m.ARPReplies),
	}
	if !m.MeasureTime.IsZero() {
		t := m.MeasureTime.Time
		rec.MeasureTime = &t
	}
	return models.MetricUpdate{Meta: meta, Metrics: rec}, nil
}

func unmarshalPayload(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(payload, v)
}

func deviceID(d *wireDevice) string {
	switch {
	case d.DeviceID != "":
		return string(d.DeviceID)
	case d.ID != "":
		return string(d.ID)
	case d.MACAddress != "":
		return strings.TrimSpace(d.MACAddress)
	default:
		return strings.TrimSpace(d.MAC)
	}
}

func normalizeDevice(d *wireDevice) models.DeviceRecord {
	return models.DeviceRecord{
		ID:     deviceID(d),
		Name:   strings.TrimSpace(firstNonEmpty(d.Hostname, d.Name)),
		IP:     strings.TrimSpace(firstNonEmpty(d.IPAddress, d.IP)),
		MAC:    strings.ToUpper(strings.TrimSpace(firstNonEmpty(d.MACAddress, d.MAC))),
		Vendor: strings.TrimSpace(d.Vendor),
		Type:   models.ParseDeviceType(firstNonEmpty(d.DeviceType, d.Type)),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package decoder

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Feed type and subtype names.
const (
	TypeTopology = "TOPOLOGY"
	TypeMetric   = "METRIC"

	SubtypeDeviceJoined        = "DEVICE_JOINED"
	SubtypeDeviceLeft          = "DEVICE_LEFT"
	SubtypePeriodicMetricState = "PERIODIC_METRIC_STATE"
)

// wireFrame is one inbound message. Both fields are optional and independent.
type wireFrame struct {
	Event          *wireEvent `json:"event"`
	DashboardStats *wireStats `json:"dashboard_stats"`
}

type wireEvent struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype"`
	Payload json.RawMessage `json:"payload"`
	Meta    wireMeta        `json:"meta"`
}

type wireMeta struct {
	Sequence  flexString `json:"sequence"`
	Timestamp flexTime   `json:"timestamp"`
}

type wireStats struct {
	TotalDevices    flexInt `json:"total_devices"`
	ActiveDevices   flexInt `json:"active_devices"`
	InactiveDevices flexInt `json:"inactive_devices"`
	NewDevicesToday flexInt `json:"new_devices_today"`
}

// wireDevice accepts the field spellings used by the discovery backends.
type wireDevice struct {
	DeviceID   flexString `json:"device_id"`
	ID         flexString `json:"id"`
	Hostname   string     `json:"hostname"`
	Name       string     `json:"name"`
	IPAddress  string     `json:"ip_address"`
	IP         string     `json:"ip"`
	MACAddress string     `json:"mac_address"`
	MAC        string     `json:"mac"`
	Vendor     string     `json:"vendor"`
	DeviceType string     `json:"device_type"`
	Type       string     `json:"type"`
}

type topologyPayload struct {
	Device *wireDevice `json:"device"`
}

type metricPayload struct {
	Metrics *wireMetrics `json:"metrics"`
}

type wireMetrics struct {
	TotalDevices          flexInt  `json:"total_devices"`
	ActiveDevices         flexInt  `json:"active_devices"`
	DataSent              flexInt  `json:"data_sent"`
	DataReceived          flexInt  `json:"data_received"`
	TotalBroadcastPackets flexInt  `json:"total_broadcast_packets"`
	TotalUnicastPackets   flexInt  `json:"total_unicast_packets"`
	ARPRequests           flexInt  `json:"arp_requests"`
	ARPReplies            flexInt  `json:"arp_replies"`
	MeasureTime           flexTime `json:"measure_time"`
}

var nullLiteral = []byte("null")

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts an integer, a float (rounded) or a numeric string.
// null and missing both decode to zero.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		*n = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = flexInt(i)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected number, got %s", b)
	}
	*n = flexInt(clampInt64(math.Round(f)))
	return nil
}

// clampInt64 converts f to int64, saturating at the limits rather than
// wrapping, so 1e300 reads as MaxInt64 and not as a negative count.
func clampInt64(f float64) int64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}

// flexTime accepts RFC 3339 strings, zone-less ISO 8601 strings (read as
// UTC) and epoch numbers in seconds or milliseconds. Anything unparseable
// decodes to the zero time rather than failing the frame.
type flexTime struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e11

func (t *flexTime) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		t.Time = parseTimestamp(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return nil
	}
	if f >= epochMillisThreshold {
		t.Time = time.UnixMilli(int64(f)).UTC()
	} else {
		t.Time = time.Unix(0, int64(f*float64(time.Second))).UTC()
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		if f >= epochMillisThreshold {
			return time.UnixMilli(int64(f)).UTC()
		}
		return time.Unix(0, int64(f*float64(time.Second))).UTC()
	}
	return time.Time{}
}

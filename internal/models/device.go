// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package models

import (
	"strings"
	"time"
)

// DeviceStatus is the roster state of a device.
type DeviceStatus string

const (
	StatusActive DeviceStatus = "active"
	StatusIdle   DeviceStatus = "idle"
)

// DeviceType is the categorical kind of a device as reported by the feed.
type DeviceType string

const (
	DeviceTypeLaptop  DeviceType = "laptop"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypePrinter DeviceType = "printer"
	DeviceTypeIoT     DeviceType = "iot"
	DeviceTypeNetwork DeviceType = "network"
	DeviceTypeUnknown DeviceType = "unknown"
)

// deviceTypeAliases folds the spellings seen from discovery backends into the
// fixed categories.
var deviceTypeAliases = map[string]DeviceType{
	"laptop":      DeviceTypeLaptop,
	"desktop":     DeviceTypeLaptop,
	"computer":    DeviceTypeLaptop,
	"workstation": DeviceTypeLaptop,
	"pc":          DeviceTypeLaptop,
	"mobile":      DeviceTypeMobile,
	"phone":       DeviceTypeMobile,
	"smartphone":  DeviceTypeMobile,
	"tablet":      DeviceTypeMobile,
	"printer":     DeviceTypePrinter,
	"scanner":     DeviceTypePrinter,
	"iot":         DeviceTypeIoT,
	"camera":      DeviceTypeIoT,
	"sensor":      DeviceTypeIoT,
	"thermostat":  DeviceTypeIoT,
	"network":     DeviceTypeNetwork,
	"router":      DeviceTypeNetwork,
	"switch":      DeviceTypeNetwork,
	"ap":          DeviceTypeNetwork,
	"gateway":     DeviceTypeNetwork,
}

// ParseDeviceType maps a raw type string to a DeviceType. Unknown or empty
// values map to DeviceTypeUnknown.
func ParseDeviceType(raw string) DeviceType {
	if t, ok := deviceTypeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return DeviceTypeUnknown
}

// Device is one entry of the roster. ID is immutable once the device exists.
type Device struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	IP        string       `json:"ip"`
	MAC       string       `json:"mac"`
	Vendor    string       `json:"vendor"`
	Type      DeviceType   `json:"type"`
	Status    DeviceStatus `json:"status"`
	FirstSeen time.Time    `json:"firstSeen"`
	LastSeen  time.Time    `json:"lastSeen"`
}

// DeviceRecord is the normalized device payload of a DEVICE_JOINED event,
// before the reconciler assigns status and timestamps.
type DeviceRecord struct {
	ID     string
	Name   string
	IP     string
	MAC    string
	Vendor string
	Type   DeviceType
}

// DisplayName returns the best human label for the record.
func (r DeviceRecord) DisplayName() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.IP != "":
		return r.IP
	default:
		return r.ID
	}
}

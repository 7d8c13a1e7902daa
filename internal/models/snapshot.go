// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package models

import (
	"slices"
	"time"
)

// Snapshot is an immutable point-in-time view of the engine state.
//
// Devices are ordered active-before-idle, stable within each group. Events
// are newest-first. ActiveDevices, IdleDevices and NewDevicesToday repeat the
// dashboard stats at top level for consumers of the flat shape.
//
// Every reader gets its own Clone, so sorting or editing the slices never
// leaks into another reader's view.
type Snapshot struct {
	Devices         []Device        `json:"devices"`
	Events          []Event         `json:"events"`
	Metrics         MetricsSnapshot `json:"metrics"`
	Stats           DashboardStats  `json:"stats"`
	ActiveDevices   int64           `json:"activeDevices"`
	IdleDevices     int64           `json:"idleDevices"`
	NewDevicesToday int64           `json:"newDevicesToday"`
	IsConnected     bool            `json:"isConnected"`
	ARPRate         int64           `json:"arpRate"`
	FeedCapacity    int             `json:"feedCapacity"`
	FeedEvicted     uint64          `json:"feedEvicted"`
	Version         uint64          `json:"version"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// Device returns the roster entry for id.
func (s *Snapshot) Device(id string) (Device, bool) {
	for i := range s.Devices {
		if s.Devices[i].ID == id {
			return s.Devices[i], true
		}
	}
	return Device{}, false
}

// Clone returns a deep copy of s that shares no slices or payloads with it.
func (s *Snapshot) Clone() Snapshot {
	c := *s
	c.Devices = slices.Clone(s.Devices)
	c.Events = slices.Clone(s.Events)
	for i := range c.Events {
		c.Events[i].Payload = c.Events[i].Payload.Clone()
	}
	return c
}

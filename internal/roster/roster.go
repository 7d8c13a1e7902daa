// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package roster holds the two owned data structures of the reconciler: the
// device roster and the bounded event feed. Neither type is safe for
// concurrent use; a single goroutine owns them.
package roster

import (
	"sort"
	"time"

	"github.com/tomtom215/lanwatch/internal/models"
)

// Roster maps device id to Device. Roster order is most recently inserted
// first; re-joins and leaves do not move a device.
type Roster struct {
	devices map[string]*models.Device
	order   []string // insertion order, oldest first
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{devices: make(map[string]*models.Device)}
}

// Join inserts rec as an active device if its id is unknown. A known id
// leaves the roster untouched and returns false.
func (r *Roster) Join(rec models.DeviceRecord, now time.Time) bool {
	if _, ok := r.devices[rec.ID]; ok {
		return false
	}
	r.devices[rec.ID] = &models.Device{
		ID:        rec.ID,
		Name:      rec.Name,
		IP:        rec.IP,
		MAC:       rec.MAC,
		Vendor:    rec.Vendor,
		Type:      rec.Type,
		Status:    models.StatusActive,
		FirstSeen: now,
		LastSeen:  now,
	}
	r.order = append(r.order, rec.ID)
	return true
}

// Leave marks a known device idle and refreshes LastSeen. An unknown id is a
// no-op and returns false.
func (r *Roster) Leave(id string, now time.Time) bool {
	d, ok := r.devices[id]
	if !ok {
		return false
	}
	d.Status = models.StatusIdle
	d.LastSeen = now
	return true
}

// Get returns a copy of the device with id.
func (r *Roster) Get(id string) (models.Device, bool) {
	d, ok := r.devices[id]
	if !ok {
		return models.Device{}, false
	}
	return *d, true
}

// Len returns the number of devices.
func (r *Roster) Len() int {
	return len(r.order)
}

// Counts returns the number of active and idle devices.
func (r *Roster) Counts() (active, idle int) {
	for _, d := range r.devices {
		if d.Status == models.StatusActive {
			active++
		} else {
			idle++
		}
	}
	return active, idle
}

// Devices returns copies of all devices in roster order, newest first.
func (r *Roster) Devices() []models.Device {
	out := make([]models.Device, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, *r.devices[r.order[i]])
	}
	return out
}

// SortForDisplay orders devices active-before-idle in place, keeping the
// relative order within each status group.
func SortForDisplay(devices []models.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Status == models.StatusActive && devices[j].Status != models.StatusActive
	})
}

// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/models"
)

// SnapshotSource is the read side of the publisher.
type SnapshotSource interface {
	Latest() models.Snapshot
}

// LivenessProbe reports the transport socket state. Satisfied by
// *engine.Engine.
type LivenessProbe interface {
	IsConnected() bool
}

// Handler serves the read API.
type Handler struct {
	source       SnapshotSource
	probe        LivenessProbe
	cfg          config.APIConfig
	feedCapacity int
	version      string
	startTime    time.Time
}

// NewHandler creates a Handler. probe may be nil.
func NewHandler(source SnapshotSource, probe LivenessProbe, cfg *config.Config, version string) *Handler {
	return &Handler{
		source:       source,
		probe:        probe,
		cfg:          cfg.API,
		feedCapacity: cfg.Engine.FeedCapacity,
		version:      version,
		startTime:    time.Now(),
	}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status          string  `json:"status"`
	Version         string  `json:"version"`
	IsConnected     bool    `json:"isConnected"`
	SocketOpen      bool    `json:"socketOpen"`
	Devices         int     `json:"devices"`
	Events          int     `json:"events"`
	FeedCapacity    int     `json:"feedCapacity"`
	FeedEvicted     uint64  `json:"feedEvicted"`
	SnapshotVersion uint64  `json:"snapshotVersion"`
	Uptime          float64 `json:"uptime"`
}

// Health reports service uptime and feed liveness. It always answers 200; a
// disconnected feed is reported as degraded, not as an HTTP failure.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Latest()
	socketOpen := snap.IsConnected
	if h.probe != nil {
		socketOpen = h.probe.IsConnected()
	}

	status := "healthy"
	if !snap.IsConnected {
		status = "degraded"
	}

	respondSuccess(w, HealthStatus{
		Status:          status,
		Version:         h.version,
		IsConnected:     snap.IsConnected,
		SocketOpen:      socketOpen,
		Devices:         len(snap.Devices),
		Events:          len(snap.Events),
		FeedCapacity:    snap.FeedCapacity,
		FeedEvicted:     snap.FeedEvicted,
		SnapshotVersion: snap.Version,
		Uptime:          time.Since(h.startTime).Seconds(),
	}, snap.Version, nil)
}

// Snapshot returns the whole current snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Latest()
	if notModified(w, r, snap.Version) {
		return
	}
	respondSuccess(w, snap, snap.Version, nil)
}

// Devices returns one page of the roster, active devices first.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseDevicesRequest(r, h.cfg)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	snap := h.source.Latest()
	devices := filterDevices(snap.Devices, models.DeviceStatus(req.Status))
	page, meta := paginate(devices, req.Page, req.PageSize)
	respondSuccess(w, page, snap.Version, meta)
}

// Device returns one device by id.
func (h *Handler) Device(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := h.source.Latest()
	device, ok := snap.Device(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "device not found", nil)
		return
	}
	respondSuccess(w, device, snap.Version, nil)
}

// Events returns the newest feed entries, optionally of one type.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseEventsRequest(r, h.cfg, h.feedCapacity)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	snap := h.source.Latest()
	events := make([]models.Event, 0, min(req.Limit, len(snap.Events)))
	for _, e := range snap.Events {
		if len(events) == req.Limit {
			break
		}
		if req.Type != "" && string(e.Type) != req.Type {
			continue
		}
		events = append(events, e)
	}
	respondSuccess(w, events, snap.Version, nil)
}

// MetricsView is the body of GET /metrics under /api/v1.
type MetricsView struct {
	Metrics         models.MetricsSnapshot `json:"metrics"`
	Stats           models.DashboardStats  `json:"stats"`
	ARPRate         int64                  `json:"arpRate"`
	ActiveDevices   int64                  `json:"activeDevices"`
	IdleDevices     int64                  `json:"idleDevices"`
	NewDevicesToday int64                  `json:"newDevicesToday"`
	IsConnected     bool                   `json:"isConnected"`
}

// Metrics returns the traffic counters and derived figures.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Latest()
	if notModified(w, r, snap.Version) {
		return
	}
	respondSuccess(w, MetricsView{
		Metrics:         snap.Metrics,
		Stats:           snap.Stats,
		ARPRate:         snap.ARPRate,
		ActiveDevices:   snap.ActiveDevices,
		IdleDevices:     snap.IdleDevices,
		NewDevicesToday: snap.NewDevicesToday,
		IsConnected:     snap.IsConnected,
	}, snap.Version, nil)
}

func filterDevices(devices []models.Device, status models.DeviceStatus) []models.Device {
	if status == "" {
		return devices
	}
	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

// paginate slices a 1-based page. A page past the end is empty, not an error.
func paginate(devices []models.Device, page, size int) ([]models.Device, *models.Pagination) {
	total := len(devices)
	meta := &models.Pagination{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
	start := (page - 1) * size
	if start >= total {
		return []models.Device{}, meta
	}
	end := min(start+size, total)
	return devices[start:end], meta
}

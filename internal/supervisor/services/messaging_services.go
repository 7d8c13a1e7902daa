// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package services

import "context"

// ContextHub is a hub whose loop stops with its context.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService supervises the downstream WebSocket hub.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService wraps hub.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub, name: "websocket-hub"}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string {
	return s.name
}

// Mirror is a queue drained by Serve.
type Mirror interface {
	Serve(ctx context.Context) error
}

// MirrorService supervises the NATS mirror publisher loop.
type MirrorService struct {
	mirror Mirror
	name   string
}

// NewMirrorService wraps m.
func NewMirrorService(m Mirror) *MirrorService {
	return &MirrorService{mirror: m, name: "nats-mirror"}
}

// Serve implements suture.Service.
func (s *MirrorService) Serve(ctx context.Context) error {
	return s.mirror.Serve(ctx)
}

func (s *MirrorService) String() string {
	return s.name
}

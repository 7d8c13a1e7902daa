// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/metrics"
	"github.com/tomtom215/lanwatch/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeSnapshot = "snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SnapshotSource is the publisher side the hub reads from.
// Satisfied by *publisher.Publisher.
type SnapshotSource interface {
	Latest() models.Snapshot
	Subscribe(buffer int) (<-chan models.Snapshot, func())
}

// Hub maintains the set of active clients and broadcasts snapshots to them.
type Hub struct {
	source     SnapshotSource
	cfg        config.WebSocketConfig
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a Hub reading from source.
func NewHub(source SnapshotSource, cfg config.WebSocketConfig) *Hub {
	if cfg.BroadcastBuffer < 1 {
		cfg.BroadcastBuffer = 16
	}
	if cfg.MaxMessageSize < 512 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	return &Hub{
		source:     source,
		cfg:        cfg,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err(). It implements the suture service body.
//
// Client lifecycle events are drained before snapshots so a client that
// registers and a snapshot that arrives together are handled in that order.
func (h *Hub) RunWithContext(ctx context.Context) error {
	snaps, cancel := h.source.Subscribe(h.cfg.BroadcastBuffer)
	defer cancel()
	// The first value is the current snapshot, which clients get on register.
	<-snaps

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case snap, ok := <-snaps:
			if !ok {
				// Publisher closed; keep serving lifecycle events until shutdown.
				snaps = nil
				continue
			}
			h.broadcastSnapshot(snap)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	payload, err := MarshalMessage(Message{Type: MessageTypeSnapshot, Data: h.source.Latest()})

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))

	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal initial snapshot")
	} else {
		select {
		case client.send <- payload:
			metrics.WSMessagesSent.Inc()
		default:
		}
	}
	logging.Info().Int("total_clients", total).Uint64("client_id", client.id).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Uint64("client_id", client.id).Msg("websocket client disconnected")
}

// broadcastSnapshot marshals snap once and queues it for every client in id
// order. Clients whose buffer is full are dropped.
func (h *Hub) broadcastSnapshot(snap models.Snapshot) {
	payload, err := MarshalMessage(Message{Type: MessageTypeSnapshot, Data: snap})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal snapshot for broadcast")
		return
	}
	h.broadcastBytes(payload)
}

func (h *Hub) broadcastBytes(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClientsLocked()
	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- payload:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSSlowClientsDropped.Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err() is
// not logged as an error since cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClientsLocked() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

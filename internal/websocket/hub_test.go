// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package websocket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/models"
	"github.com/tomtom215/lanwatch/internal/publisher"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{Enabled: true, BroadcastBuffer: 4, MaxMessageSize: 4096}
}

// setupHub starts a hub over a fresh publisher and stops it at cleanup.
func setupHub(t *testing.T) (*Hub, *publisher.Publisher) {
	t.Helper()
	pub := publisher.New()
	hub := NewHub(pub, testWSConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, pub
}

func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan []byte, hub.cfg.BroadcastBuffer)}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func snapshotVersion(t *testing.T, msg Message) float64 {
	t.Helper()
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", msg.Data)
	}
	v, ok := data["version"].(float64)
	if !ok {
		t.Fatalf("version is %T", data["version"])
	}
	return v
}

func TestHub_NewClientReceivesLatestSnapshot(t *testing.T) {
	hub, pub := setupHub(t)
	pub.Publish(models.Snapshot{Version: 7, IsConnected: true})

	client := createTestClient(hub)
	hub.Register <- client

	msg := receive(t, client)
	if msg.Type != MessageTypeSnapshot {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeSnapshot)
	}
	if v := snapshotVersion(t, msg); v != 7 {
		t.Errorf("version = %v, want 7", v)
	}
	if hub.GetClientCount() != 1 {
		t.Errorf("GetClientCount() = %d, want 1", hub.GetClientCount())
	}
}

func TestHub_BroadcastsPublishedSnapshots(t *testing.T) {
	hub, pub := setupHub(t)
	a, b := createTestClient(hub), createTestClient(hub)
	hub.Register <- a
	hub.Register <- b
	receive(t, a)
	receive(t, b)

	pub.Publish(models.Snapshot{Version: 1})

	for _, c := range []*Client{a, b} {
		if v := snapshotVersion(t, receive(t, c)); v != 1 {
			t.Errorf("client %d got version %v, want 1", c.id, v)
		}
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := setupHub(t)
	c := createTestClient(hub)
	hub.Register <- c
	receive(t, c)

	hub.Unregister <- c
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send not closed")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, pub := setupHub(t)
	slow := createTestClient(hub)
	hub.Register <- slow

	// The initial snapshot plus BroadcastBuffer more fills the buffer.
	for i := 1; i <= hub.cfg.BroadcastBuffer+10; i++ {
		pub.Publish(models.Snapshot{Version: uint64(i)})
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	pub := publisher.New()
	hub := NewHub(pub, testWSConfig())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	c := createTestClient(hub)
	hub.Register <- c
	receive(t, c)

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext() = %v, want context.Canceled", err)
	}
	if _, ok := <-c.send; ok {
		t.Error("client send channel still open after shutdown")
	}
	if pub.Subscribers() != 0 {
		t.Errorf("publisher still has %d subscribers", pub.Subscribers())
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %q", got)
	}

	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %q", got)
	}
}

func TestServeWS_EndToEnd(t *testing.T) {
	hub, pub := setupHub(t)
	pub.Publish(models.Snapshot{Version: 3})

	upgrader := Upgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, upgrader, w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if v := snapshotVersion(t, first); v != 3 {
		t.Errorf("initial version = %v, want 3", v)
	}

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != MessageTypePong {
		t.Errorf("reply type = %q, want pong", pong.Type)
	}

	pub.Publish(models.Snapshot{Version: 4})
	var next Message
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if v := snapshotVersion(t, next); v != 4 {
		t.Errorf("broadcast version = %v, want 4", v)
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		host    string
		allowed []string
		want    bool
	}{
		{"no origin header", "", "lan:8090", nil, true},
		{"same host", "http://lan:8090", "lan:8090", nil, true},
		{"listed origin", "http://dash.local", "lan:8090", []string{"http://dash.local"}, true},
		{"wildcard", "http://evil.example", "lan:8090", []string{"*"}, true},
		{"foreign origin", "http://evil.example", "lan:8090", []string{"http://dash.local"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := originAllowed(r, tt.allowed); got != tt.want {
				t.Errorf("originAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

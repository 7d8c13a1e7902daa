// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/lanwatch/internal/config"
)

func testFeedConfig(url string) *config.FeedConfig {
	return &config.FeedConfig{
		URL:              url,
		HandshakeTimeout: time.Second,
		ReadTimeout:      2 * time.Second,
		PingInterval:     50 * time.Millisecond,
		ReconnectMin:     5 * time.Millisecond,
		ReconnectMax:     20 * time.Millisecond,
		BreakerFailures:  3,
		BreakerTimeout:   time.Hour,
	}
}

// feedServer sends frames to each connection, then either holds the
// connection open or closes it.
type feedServer struct {
	*httptest.Server
	connections atomic.Int32
	frames      []string
	hold        bool
}

func newFeedServer(t *testing.T, frames []string, hold bool) *feedServer {
	t.Helper()
	fs := &feedServer{frames: frames, hold: hold}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fs.connections.Add(1)
		for _, f := range fs.frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		if !fs.hold {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		}
		// Reading services pings until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

type collector struct {
	mu     sync.Mutex
	frames []string
}

func (c *collector) handle(_ context.Context, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, string(raw))
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

func startClient(t *testing.T, c *Client) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()
	t.Cleanup(func() {
		c.Close()
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
			t.Error("Run did not return after Close")
		}
	})
	return errCh
}

func TestClient_DeliversFramesInOrder(t *testing.T) {
	srv := newFeedServer(t, []string{"one", "two", "three"}, true)
	col := &collector{}
	c := NewClient(testFeedConfig(srv.wsURL()), col.handle)
	startClient(t, c)

	require.Eventually(t, func() bool { return len(col.snapshot()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"one", "two", "three"}, col.snapshot())
	assert.True(t, c.IsConnected())
}

func TestClient_ReconnectsAfterServerClose(t *testing.T) {
	srv := newFeedServer(t, []string{"hello"}, false)
	col := &collector{}
	c := NewClient(testFeedConfig(srv.wsURL()), col.handle)
	startClient(t, c)

	require.Eventually(t, func() bool { return srv.connections.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, len(col.snapshot()), 2)
}

func TestClient_KeepsConnectionAliveWithPings(t *testing.T) {
	srv := newFeedServer(t, nil, true)
	cfg := testFeedConfig(srv.wsURL())
	cfg.ReadTimeout = 200 * time.Millisecond
	c := NewClient(cfg, (&collector{}).handle)
	startClient(t, c)

	require.Eventually(t, c.IsConnected, 2*time.Second, 5*time.Millisecond)
	time.Sleep(600 * time.Millisecond)
	assert.True(t, c.IsConnected())
	assert.Equal(t, int32(1), srv.connections.Load(), "pongs keep the read deadline moving")
}

func TestClient_CloseIsIdempotentAndStopsRun(t *testing.T) {
	srv := newFeedServer(t, nil, true)
	c := NewClient(testFeedConfig(srv.wsURL()), (&collector{}).handle)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()
	require.Eventually(t, c.IsConnected, 2*time.Second, 5*time.Millisecond)

	c.Close()
	c.Close()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.False(t, c.IsConnected())
}

func TestClient_ContextCancelStopsRun(t *testing.T) {
	srv := newFeedServer(t, nil, true)
	c := NewClient(testFeedConfig(srv.wsURL()), (&collector{}).handle)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	require.Eventually(t, c.IsConnected, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	c.Close()
}

func TestClient_SecondRunRejected(t *testing.T) {
	srv := newFeedServer(t, nil, true)
	c := NewClient(testFeedConfig(srv.wsURL()), (&collector{}).handle)
	startClient(t, c)

	require.Eventually(t, c.IsConnected, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyRunning)
}

func TestClient_BreakerOpensOnRepeatedDialFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	c := NewClient(testFeedConfig(url), (&collector{}).handle)
	startClient(t, c)

	require.Eventually(t, func() bool {
		return c.BreakerState() == gobreaker.StateOpen
	}, 3*time.Second, 5*time.Millisecond)
	assert.False(t, c.IsConnected())
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		cur, limit, want time.Duration
	}{
		{time.Second, 32 * time.Second, 2 * time.Second},
		{16 * time.Second, 32 * time.Second, 32 * time.Second},
		{32 * time.Second, 32 * time.Second, 32 * time.Second},
		{20 * time.Second, 32 * time.Second, 32 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextBackoff(tt.cur, tt.limit), "nextBackoff(%v, %v)", tt.cur, tt.limit)
	}
}

func TestStateToString(t *testing.T) {
	assert.Equal(t, "closed", stateToString(gobreaker.StateClosed))
	assert.Equal(t, "half-open", stateToString(gobreaker.StateHalfOpen))
	assert.Equal(t, "open", stateToString(gobreaker.StateOpen))
	assert.InDelta(t, 2.0, stateToFloat(gobreaker.StateOpen), 0)
}

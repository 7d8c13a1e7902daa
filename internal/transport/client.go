// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

/*
Package transport keeps a persistent WebSocket connection to the monitoring
feed and hands every text frame to a single handler.

Transport failures never surface as errors to the caller. A dropped
connection flips IsConnected to false and the client redials with
exponential backoff (ReconnectMin doubling up to ReconnectMax). Dials go
through a circuit breaker so a feed that is down for a long time costs one
probe per breaker timeout instead of a dial per backoff step.

The client is read-only: apart from protocol pings it never writes to the feed.
*/
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/metrics"
)

const (
	breakerName = "feed-dial"
	closeGrace  = 250 * time.Millisecond
)

// ErrAlreadyRunning is returned by a second concurrent Run.
var ErrAlreadyRunning = errors.New("transport already running")

// Handler receives one raw frame. It runs on the read goroutine; a slow
// handler applies backpressure to the socket.
type Handler func(ctx context.Context, raw []byte)

// Client manages the feed connection.
type Client struct {
	cfg     config.FeedConfig
	dialer  websocket.Dialer
	breaker *gobreaker.CircuitBreaker[*websocket.Conn]
	handler Handler
	log     zerolog.Logger

	conn   *websocket.Conn
	connMu sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	dialFailures *logging.Throttle
}

// NewClient creates a client for cfg. handler must not be nil.
func NewClient(cfg *config.FeedConfig, handler Handler) *Client {
	c := &Client{
		cfg: *cfg,
		dialer: websocket.Dialer{
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: true,
		},
		handler:      handler,
		log:          logging.WithComponent("transport"),
		stopCh:       make(chan struct{}),
		dialFailures: logging.NewThrottle(30*time.Second, 3),
	}
	c.breaker = newDialBreaker[*websocket.Conn](breakerName, cfg.BreakerFailures, gobreaker.Settings{
		Timeout: cfg.BreakerTimeout,
	})
	return c
}

// Run connects and reads until ctx is canceled or Close is called. It only
// returns an error for misuse; connection failures are retried.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	// Close cancels in-flight dials too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	delay := c.cfg.ReconnectMin
	first := true
	for {
		if c.stopping(ctx) {
			return nil
		}
		if !first {
			metrics.FeedReconnects.Inc()
		}
		first = false

		conn, err := c.dial(ctx)
		if err != nil {
			if c.stopping(ctx) {
				return nil
			}
			c.logDialFailure(err, delay)
			if !c.sleep(ctx, delay) {
				return nil
			}
			delay = nextBackoff(delay, c.cfg.ReconnectMax)
			continue
		}

		delay = c.cfg.ReconnectMin
		c.setConn(conn)
		if c.stopping(ctx) {
			c.closeConnection()
			return nil
		}
		c.log.Info().Str("url", c.cfg.URL).Msg("Connected to feed")

		c.serve(ctx, conn)
		c.closeConnection()

		if c.stopping(ctx) {
			return nil
		}
		c.log.Info().Dur("delay", delay).Msg("Feed connection lost, reconnecting")
		if !c.sleep(ctx, delay) {
			return nil
		}
	}
}

// IsConnected reports whether a socket is currently open.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}

// Close stops Run and drops the connection. Idempotent; it does not wait
// for Run to return.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.log.Debug().Msg("Transport closing")
	})
	c.closeConnection()
}

// BreakerState exposes the dial breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, err := c.breaker.Execute(func() (*websocket.Conn, error) {
		conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			if cerr := resp.Body.Close(); cerr != nil {
				c.log.Debug().Err(cerr).Msg("Failed to close handshake response body")
			}
		}
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
			}
			return nil, fmt.Errorf("websocket dial failed: %w", err)
		}
		return conn, nil
	})
	recordBreakerResult(breakerName, err)
	return conn, err
}

// serve reads frames until the connection fails. A ping loop runs alongside
// and a pong or any frame extends the read deadline.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	pingCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(pingCtx, conn)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			c.log.Debug().Err(err).Msg("Failed to set read deadline")
			return
		}
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			switch {
			case c.stopping(ctx):
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.log.Info().Msg("Feed closed the connection")
			default:
				c.log.Warn().Err(err).Msg("Feed read error")
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		c.handler(ctx, raw)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.HandshakeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.log.Debug().Err(err).Msg("Ping failed")
				// Unblocks the reader so the outer loop redials.
				c.closeConnection()
				return
			}
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.conn = conn
}

// closeConnection sends a close frame and drops the socket, if any.
func (c *Client) closeConnection() {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGrace),
	); err != nil {
		c.log.Debug().Err(err).Msg("Failed to send close message")
	}
	if err := conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("Failed to close connection")
	}
}

func (c *Client) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// sleep waits for d. It returns false when interrupted by ctx or Close.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.stopCh:
		return false
	}
}

func (c *Client) logDialFailure(err error, delay time.Duration) {
	ok, suppressed := c.dialFailures.Allow()
	if !ok {
		return
	}
	ev := c.log.Warn().Err(err).Dur("retry_in", delay).Str("breaker", stateToString(c.breaker.State()))
	if suppressed > 0 {
		ev = ev.Int64("suppressed", suppressed)
	}
	ev.Msg("Feed dial failed")
}

// nextBackoff doubles cur, capped at limit.
func nextBackoff(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit || next <= 0 {
		return limit
	}
	return next
}

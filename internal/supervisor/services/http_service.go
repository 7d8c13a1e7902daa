// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tomtom215/lanwatch/internal/logging"
)

// HTTPServer is satisfied by *http.Server.
type HTTPServer interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// HTTPServerService binds the API listener on every start and serves on it
// until the supervisor cancels, then drains in-flight requests.
type HTTPServerService struct {
	server HTTPServer
	addr   string
	drain  time.Duration
	listen func(network, address string) (net.Listener, error)
	bound  atomic.Pointer[string]
}

// NewHTTPServerService wraps server. The listen address is taken from
// *http.Server.Addr; other implementations bind a loopback ephemeral port.
// A non-positive drain means 10s.
func NewHTTPServerService(server HTTPServer, drain time.Duration) *HTTPServerService {
	if drain <= 0 {
		drain = 10 * time.Second
	}
	addr := "127.0.0.1:0"
	if s, ok := server.(*http.Server); ok && s.Addr != "" {
		addr = s.Addr
	}
	return &HTTPServerService{server: server, addr: addr, drain: drain, listen: net.Listen}
}

// Addr returns the address of the current listener, or "" before the first
// successful bind.
func (h *HTTPServerService) Addr() string {
	if p := h.bound.Load(); p != nil {
		return *p
	}
	return ""
}

// Serve implements suture.Service. Bind failures are returned so the
// supervisor retries with backoff.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	ln, err := h.listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("api listener %s: %w", h.addr, err)
	}
	bound := ln.Addr().String()
	h.bound.Store(&bound)
	log := logging.WithComponent("api").With().Str("addr", bound).Logger()
	log.Info().Msg("API listening")

	served := make(chan error, 1)
	go func() { served <- h.server.Serve(ln) }()

	select {
	case err := <-served:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), h.drain)
	defer cancel()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("api drain: %w", err)
	}
	<-served
	log.Info().Msg("API stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "api-http" }

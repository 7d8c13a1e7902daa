// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const embeddedReadyTimeout = 10 * time.Second

// EmbeddedServer is an in-process core NATS server for single-host installs,
// so the mirror has somewhere to publish without external infrastructure.
type EmbeddedServer struct {
	ns   *server.Server
	done chan struct{}
}

// StartEmbedded starts a server on host:port (port -1 picks a free one) and
// shuts it down when ctx ends.
func StartEmbedded(ctx context.Context, host string, port int) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "lanwatch-mirror",
		Host:       host,
		Port:       port,
		NoSigs:     true,
		NoLog:      true,
		MaxPayload: 1 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("embedded nats: %w", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(embeddedReadyTimeout) {
		ns.Shutdown()
		return nil, errors.New("embedded nats: not accepting connections")
	}

	e := &EmbeddedServer{ns: ns, done: make(chan struct{})}
	go func() {
		<-ctx.Done()
		ns.Shutdown()
		ns.WaitForShutdown()
		close(e.done)
	}()
	return e, nil
}

// ClientURL returns the URL the mirror should dial.
func (e *EmbeddedServer) ClientURL() string {
	return e.ns.ClientURL()
}

// Running reports whether the server still accepts connections.
func (e *EmbeddedServer) Running() bool {
	return e.ns.Running()
}

// Done is closed once the server has fully stopped.
func (e *EmbeddedServer) Done() <-chan struct{} {
	return e.done
}

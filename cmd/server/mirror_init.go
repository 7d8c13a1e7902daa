// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/mirror"
	"github.com/tomtom215/lanwatch/internal/supervisor"
	"github.com/tomtom215/lanwatch/internal/supervisor/services"
)

// initMirror builds the NATS mirror when enabled and registers its publish
// loop. An embedded server, if requested, is shut down when ctx ends.
func initMirror(ctx context.Context, cfg *config.Config, tree *supervisor.SupervisorTree) (*mirror.Mirror, error) {
	if !cfg.Mirror.Enabled {
		logging.Info().Msg("NATS mirror disabled (MIRROR_ENABLED=false)")
		return nil, nil
	}

	mcfg := cfg.Mirror
	if mcfg.EmbeddedServer {
		srv, err := mirror.StartEmbedded(ctx, "127.0.0.1", mcfg.EmbeddedPort)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		mcfg.URL = srv.ClientURL()
		logging.Info().Str("url", mcfg.URL).Msg("Embedded NATS server started")
	}

	m, err := mirror.New(mcfg)
	if err != nil {
		return nil, err
	}
	tree.AddMessagingService(services.NewMirrorService(m))
	logging.Info().
		Str("url", mcfg.URL).
		Str("prefix", mcfg.SubjectPrefix).
		Msg("NATS mirror added to supervisor tree")
	return m, nil
}

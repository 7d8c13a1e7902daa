// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/lanwatch/internal/api"
	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/engine"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/publisher"
	"github.com/tomtom215/lanwatch/internal/reconciler"
	"github.com/tomtom215/lanwatch/internal/supervisor"
	"github.com/tomtom215/lanwatch/internal/supervisor/services"
	ws "github.com/tomtom215/lanwatch/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("feed_url", cfg.Feed.URL).
		Int("feed_capacity", cfg.Engine.FeedCapacity).
		Msg("Starting LANWatch with supervisor tree")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFromConfig(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	pub := publisher.New()
	defer pub.Close()

	var opts []reconciler.Option
	mirror, err := initMirror(ctx, cfg, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS mirror")
	}
	if mirror != nil {
		defer mirror.Close()
		opts = append(opts, reconciler.WithObserver(mirror))
	}

	eng := engine.NewFromConfig(cfg, pub, opts...)
	tree.AddIngestService(services.NewEngineService(eng))

	var wsHandler http.Handler
	if cfg.WebSocket.Enabled {
		hub := ws.NewHub(pub, cfg.WebSocket)
		upgrader := ws.Upgrader(cfg.Security.CORSOrigins)
		wsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, upgrader, w, r)
		})
		tree.AddMessagingService(services.NewHubService(hub))
		logging.Info().Msg("WebSocket hub added to supervisor tree")
	}

	handler := api.NewHandler(pub, eng, cfg, version)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security))
	router := api.NewRouter(handler, mw, wsHandler)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("LANWatch stopped")
}

// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

/*
Package supervisor runs the LANWatch services under a suture v4 tree.

Services are grouped into three layers so a failure in one does not take
down the others:

	RootSupervisor ("lanwatch")
	├── IngestSupervisor ("ingest-layer")
	│   └── EngineService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService
	│   └── MirrorService (if MIRROR_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (start, stop, failure, backoff) are logged through the
sutureslog adapter on top of the zerolog-backed slog handler.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(),
	    supervisor.TreeConfigFromConfig(cfg.Supervisor))
	tree.AddIngestService(services.NewEngineService(eng))
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)

See the services subpackage for the wrappers.
*/
package supervisor

// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

/*
Package main is the entry point for the LANWatch server.

LANWatch connects to a network monitor's event stream over WebSocket, folds
device join/leave and periodic metric envelopes into one consistent view,
and serves that view over HTTP and a downstream WebSocket.

# Application Architecture

	RootSupervisor ("lanwatch")
	├── IngestSupervisor ("ingest-layer")
	│   └── Engine (transport + decoder + reconciler)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (snapshot push)
	│   └── NATS mirror (optional)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Snapshot publisher
 4. NATS mirror, with an embedded nats-server when NATS_EMBEDDED=true
 5. Engine and its reconciler
 6. WebSocket hub and HTTP router
 7. Supervisor tree

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	FEED_URL=ws://localhost:8080/ws   # upstream event source
	HTTP_PORT=8090
	LOG_LEVEL=info                    # trace, debug, info, warn, error
	LOG_FORMAT=json                   # json or console
	FEED_CAPACITY=500                 # retained feed entries
	MIRROR_ENABLED=false
	NATS_URL=nats://127.0.0.1:4222

# Signal Handling

SIGINT and SIGTERM cancel the root context. The engine marks the view
disconnected, the hub closes viewer connections, and the HTTP server drains
in-flight requests within SHUTDOWN_TIMEOUT.
*/
package main

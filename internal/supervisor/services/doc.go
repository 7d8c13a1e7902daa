// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

/*
Package services adapts LANWatch components to suture v4.

Each wrapper implements suture.Service (Serve(ctx) error) and fmt.Stringer
so supervisor events carry a readable name.

# Available Services

Engine (EngineService):
  - Runs the ingestion engine for one feed session
  - The engine is single-use, so a finished engine is not restarted

Hub (HubService):
  - Runs the downstream WebSocket hub loop

Mirror (MirrorService):
  - Drains the NATS mirror queue

HTTP Server (HTTPServerService):
  - Binds the API listener on each start and drains it on cancel
*/
package services

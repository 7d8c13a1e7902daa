// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

/*
Package websocket pushes reconciled network snapshots to browser viewers.

The hub subscribes to the snapshot publisher and broadcasts every snapshot it
receives to all connected viewers:

	{"type": "snapshot", "data": {...snapshot...}}

A viewer receives the latest snapshot as soon as it registers, so a freshly
opened dashboard never waits for the next feed event.

Architecture:

	publisher ──► Hub ──► Client1
	                  ├─► Client2
	                  └─► Client3

Each client has two goroutines:
  - readPump: reads from the socket, answers application pings, enforces the read limit
  - writePump: writes queued messages and protocol pings

A viewer whose send buffer is full is dropped rather than slowing the hub.
The channel is downstream only; viewers cannot send commands to the feed.
*/
package websocket

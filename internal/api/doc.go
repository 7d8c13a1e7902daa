// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

/*
Package api serves the read-only HTTP view of the reconciled network state.

Every handler reads one immutable snapshot from the publisher, so a response
is always internally consistent even while the reconciler keeps applying
frames.

Endpoints:

	GET /api/v1/health         liveness of the service and of the feed
	GET /api/v1/snapshot       the whole snapshot
	GET /api/v1/devices        roster page; ?status=active|idle&page=1&page_size=8
	GET /api/v1/devices/{id}   one device
	GET /api/v1/events         event feed, newest first; ?limit=50&type=join
	GET /api/v1/metrics        traffic metrics, dashboard stats and ARP rate
	GET /metrics               Prometheus exposition
	GET /ws                    snapshot push (see package websocket)

Responses share one envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "snapshot_version": 42}}

Snapshot endpoints set a weak ETag derived from the snapshot version and
answer If-None-Match with 304.
*/
package api

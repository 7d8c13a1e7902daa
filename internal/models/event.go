// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package models

import "time"

// EventType classifies an entry of the event feed.
type EventType string

const (
	EventJoin     EventType = "join"
	EventLeave    EventType = "leave"
	EventReassign EventType = "reassign" // reserved, the feed does not emit it yet
	EventInactive EventType = "inactive" // reserved, the feed does not emit it yet
	EventMetric   EventType = "metric"
)

// Event is an immutable feed entry. Payload is set only for metric entries.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Payload   *MetricRecord `json:"payload,omitempty"`
}

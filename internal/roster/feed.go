// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package roster

import "github.com/tomtom215/lanwatch/internal/models"

// Feed is a fixed-capacity ring buffer of events. Pushing at capacity evicts
// the oldest entry. Reads are newest-first.
type Feed struct {
	buf     []models.Event
	next    int
	size    int
	evicted uint64
}

// NewFeed returns a feed holding at most capacity events. capacity < 1 is
// treated as 1.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{buf: make([]models.Event, capacity)}
}

// Push adds e at the head. When the feed was full it returns the evicted
// oldest entry and true.
func (f *Feed) Push(e models.Event) (models.Event, bool) {
	old := f.buf[f.next]
	f.buf[f.next] = e
	f.next = (f.next + 1) % len(f.buf)
	if f.size < len(f.buf) {
		f.size++
		return models.Event{}, false
	}
	f.evicted++
	return old, true
}

// Len returns the number of retained events.
func (f *Feed) Len() int { return f.size }

// Cap returns the capacity.
func (f *Feed) Cap() int { return len(f.buf) }

// Evicted returns how many events have been dropped since creation.
func (f *Feed) Evicted() uint64 { return f.evicted }

// Events returns a newest-first copy of the retained events.
func (f *Feed) Events() []models.Event {
	return f.latest(f.size)
}

// latest returns up to n events, newest first.
func (f *Feed) latest(n int) []models.Event {
	if n > f.size {
		n = f.size
	}
	if n < 0 {
		n = 0
	}
	out := make([]models.Event, n)
	for i := 0; i < n; i++ {
		idx := (f.next - 1 - i + len(f.buf)) % len(f.buf)
		out[i] = f.buf[idx]
	}
	return out
}

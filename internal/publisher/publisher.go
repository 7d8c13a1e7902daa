// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package publisher fans reconciler snapshots out to readers.
//
// Publish is called synchronously by the reconciler after every mutation and
// never blocks on a reader: a subscriber whose buffer is full loses its oldest
// pending snapshot, so it always converges on the latest state.
//
// Readers never share memory: Latest and every subscriber delivery hand out a
// Clone of the stored snapshot.
package publisher

import (
	"sync"

	"github.com/tomtom215/lanwatch/internal/metrics"
	"github.com/tomtom215/lanwatch/internal/models"
)

// Publisher holds the latest snapshot and the subscriber set.
type Publisher struct {
	mu     sync.RWMutex
	latest models.Snapshot
	subs   map[uint64]chan models.Snapshot
	nextID uint64
	closed bool
}

// New returns a Publisher whose Latest is the zero snapshot.
func New() *Publisher {
	return &Publisher{
		latest: models.Snapshot{Devices: []models.Device{}, Events: []models.Event{}},
		subs:   make(map[uint64]chan models.Snapshot),
	}
}

// Publish stores snap as the latest snapshot and offers a copy to every
// subscriber. The caller must not mutate snap afterwards.
func (p *Publisher) Publish(snap models.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.latest = snap
	for _, ch := range p.subs {
		offer(ch, snap.Clone())
	}
	metrics.SnapshotsPublished.Inc()
}

// offer delivers snap, evicting the oldest buffered snapshot when full.
// Only Publish sends on ch and it holds the write lock, so after one
// eviction the send cannot block.
func offer(ch chan models.Snapshot, snap models.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Latest returns a private copy of the most recently published snapshot.
func (p *Publisher) Latest() models.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest.Clone()
}

// Subscribe registers a reader. The channel receives the current snapshot
// immediately and every later one. Call cancel to unsubscribe; it closes the
// channel and is safe to call more than once.
func (p *Publisher) Subscribe(buffer int) (<-chan models.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Snapshot, buffer)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	ch <- p.latest.Clone()
	metrics.SnapshotSubscribers.Set(float64(len(p.subs)))
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
				metrics.SnapshotSubscribers.Set(float64(len(p.subs)))
			}
		})
	}
	return ch, cancel
}

// Subscribers returns the current subscriber count.
func (p *Publisher) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Close closes every subscriber channel. Later Publish calls are ignored.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	metrics.SnapshotSubscribers.Set(0)
}

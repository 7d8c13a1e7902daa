// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package reconciler applies decoded feed frames to the owned network state
// and publishes an immutable snapshot after every mutation.
//
// The Reconciler is the only writer of the roster, the event feed, the metrics
// snapshot, the dashboard stats, the ARP rate sample and the connection flag.
// Two ways to drive it:
//
//   - Run(ctx) in one goroutine and send work with Submit / SubmitConnection.
//     This is how the engine uses it: the transport read loop and the
//     liveness poll are independent producers, the actor is the single consumer.
//   - Call Process / SetConnected directly from a single goroutine, with Run
//     not started. Tests and embedders that already serialize input do this.
//
// Mixing the two is a data race.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/metrics"
	"github.com/tomtom215/lanwatch/internal/models"
	"github.com/tomtom215/lanwatch/internal/ratecalc"
	"github.com/tomtom215/lanwatch/internal/roster"
)

var (
	// ErrStopped is returned once Dispose has been called.
	ErrStopped = errors.New("reconciler stopped")

	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("reconciler already running")
)

// Sink receives every snapshot. Publish must not block.
type Sink interface {
	Publish(models.Snapshot)
}

// Observer is told about each applied envelope and stats block after the
// snapshot is published. Implementations must not block.
type Observer interface {
	EnvelopeApplied(env models.Envelope)
	StatsApplied(stats models.DashboardStats)
}

// Config sizes the owned structures.
type Config struct {
	// FeedCapacity bounds the event feed; the oldest entry is evicted beyond it.
	FeedCapacity int
	// QueueSize is the inbox capacity used by Submit.
	QueueSize int
}

// DefaultConfig returns the defaults used when the config file is silent.
func DefaultConfig() Config {
	return Config{FeedCapacity: 500, QueueSize: 256}
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithIDGenerator replaces the feed id generator used when an event has no
// sequence number.
func WithIDGenerator(gen func() string) Option {
	return func(r *Reconciler) { r.newID = gen }
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) { r.observers = append(r.observers, o) }
}

// WithLogger replaces the component logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

type messageKind int

const (
	msgFrame messageKind = iota
	msgConnection
)

type message struct {
	kind      messageKind
	frame     models.Frame
	connected bool
}

// Reconciler owns the network state. Create it with New.
type Reconciler struct {
	sink      Sink
	observers []Observer
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger

	// Owned state. Touched only by the goroutine that drives the reconciler.
	roster    *roster.Roster
	feed      *roster.Feed
	feedIDs   map[string]int
	metrics   models.MetricsSnapshot
	stats     models.DashboardStats
	rate      *ratecalc.Calculator
	connected bool
	version   uint64

	current  atomic.Pointer[models.Snapshot]
	inbox    chan message
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

// New creates a Reconciler publishing to sink. sink may be nil.
func New(cfg Config, sink Sink, opts ...Option) *Reconciler {
	if cfg.FeedCapacity < 1 {
		cfg.FeedCapacity = DefaultConfig().FeedCapacity
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	r := &Reconciler{
		sink:    sink,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		log:     logging.WithComponent("reconciler"),
		roster:  roster.New(),
		feed:    roster.NewFeed(cfg.FeedCapacity),
		feedIDs: make(map[string]int),
		rate:    ratecalc.New(),
		inbox:   make(chan message, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	initial := r.buildSnapshot(r.now())
	r.current.Store(&initial)
	return r
}

// Run is the actor loop. It applies submitted messages in arrival order until
// ctx is canceled or Dispose is called.
func (r *Reconciler) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	r.log.Debug().Msg("Reconciler loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.done:
			return nil
		case msg := <-r.inbox:
			r.handle(msg)
		}
	}
}

func (r *Reconciler) handle(msg message) {
	switch msg.kind {
	case msgFrame:
		r.apply(msg.frame)
	case msgConnection:
		r.applyConnection(msg.connected)
	}
}

// Submit enqueues a decoded frame for the actor loop. It blocks while the
// inbox is full, until ctx is done or the reconciler is disposed.
func (r *Reconciler) Submit(ctx context.Context, frame models.Frame) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}
	select {
	case r.inbox <- message{kind: msgFrame, frame: frame}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrStopped
	}
}

// SubmitConnection enqueues a liveness observation without blocking. It
// reports false when the inbox was full or the reconciler is disposed; the
// next poll tick will try again.
func (r *Reconciler) SubmitConnection(connected bool) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- message{kind: msgConnection, connected: connected}:
		return true
	default:
		return false
	}
}

// Process applies one frame synchronously and publishes the resulting
// snapshot. See the package doc for who may call it.
func (r *Reconciler) Process(frame models.Frame) error {
	if r.disposed() {
		return ErrStopped
	}
	r.apply(frame)
	return nil
}

// SetConnected applies a liveness observation synchronously.
func (r *Reconciler) SetConnected(connected bool) error {
	if r.disposed() {
		return ErrStopped
	}
	r.applyConnection(connected)
	return nil
}

// Snapshot returns a private copy of the latest snapshot. Safe from any
// goroutine.
func (r *Reconciler) Snapshot() models.Snapshot {
	return r.current.Load().Clone()
}

// Dispose stops the actor loop and rejects further input. Idempotent and
// non-blocking.
func (r *Reconciler) Dispose() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.log.Debug().Msg("Reconciler disposed")
	})
}

func (r *Reconciler) disposed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// apply mutates state for one frame. Any successfully decoded frame proves
// the feed is alive, so it also raises the connection flag.
func (r *Reconciler) apply(frame models.Frame) {
	start := time.Now()
	now := r.now()
	changed := false

	if !r.connected {
		r.connected = true
		metrics.SetConnected(true)
		changed = true
	}

	if frame.Envelope != nil {
		r.applyEnvelope(frame.Envelope, now)
		metrics.EnvelopesApplied.WithLabelValues(string(frame.Envelope.Kind())).Inc()
		changed = true
	}

	if frame.Stats != nil {
		r.stats = *frame.Stats
		metrics.EnvelopesApplied.WithLabelValues("stats").Inc()
		changed = true
	}

	if !changed {
		return
	}
	r.publish(now)

	if frame.Envelope != nil {
		for _, o := range r.observers {
			o.EnvelopeApplied(frame.Envelope)
		}
	}
	if frame.Stats != nil {
		for _, o := range r.observers {
			o.StatsApplied(*frame.Stats)
		}
	}
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
}

func (r *Reconciler) applyConnection(connected bool) {
	if connected == r.connected {
		return
	}
	r.connected = connected
	metrics.SetConnected(connected)
	r.log.Info().Bool("connected", connected).Msg("Feed liveness changed")
	r.publish(r.now())
}

func (r *Reconciler) applyEnvelope(env models.Envelope, now time.Time) {
	switch e := env.(type) {
	case models.DeviceJoined:
		r.applyJoined(e, now)
	case models.DeviceLeft:
		r.applyLeft(e, now)
	case models.MetricUpdate:
		r.applyMetric(e, now)
	default:
		r.log.Debug().Str("type", fmt.Sprintf("%T", env)).Msg("Ignoring unknown envelope type")
	}
}

func (r *Reconciler) applyJoined(e models.DeviceJoined, now time.Time) {
	inserted := r.roster.Join(e.Device, now)
	r.log.Debug().
		Str("device_id", e.Device.ID).
		Bool("inserted", inserted).
		Msg("Device joined")

	label := e.Device.DisplayName()
	msg := "Device joined: " + label
	if e.Device.IP != "" && e.Device.IP != label {
		msg += " (" + e.Device.IP + ")"
	}
	r.appendEvent(models.EventJoin, msg, e.Meta, now, nil)
}

func (r *Reconciler) applyLeft(e models.DeviceLeft, now time.Time) {
	label := e.DeviceID
	if d, ok := r.roster.Get(e.DeviceID); ok && d.Name != "" {
		label = d.Name
	}
	found := r.roster.Leave(e.DeviceID, now)
	r.log.Debug().
		Str("device_id", e.DeviceID).
		Bool("known", found).
		Msg("Device left")

	r.appendEvent(models.EventLeave, "Device left: "+label, e.Meta, now, nil)
}

func (r *Reconciler) applyMetric(e models.MetricUpdate, now time.Time) {
	r.metrics = e.Metrics.Snapshot()

	at, ok := e.SampleTime()
	if !ok {
		at = now
	}
	outcome := r.rate.Observe(ratecalc.Sample{ARPRequests: e.Metrics.ARPRequests, At: at})
	metrics.RateSamples.WithLabelValues(outcome.String()).Inc()
	metrics.ARPRate.Set(float64(r.rate.Rate()))
	if outcome == ratecalc.Skipped {
		r.log.Debug().Time("sample_time", at).Msg("Non-monotonic metric sample, keeping previous ARP rate")
	}

	payload := e.Metrics
	msg := fmt.Sprintf("Metrics update: %d devices, %d active", e.Metrics.TotalDevices, e.Metrics.ActiveDevices)
	r.appendEvent(models.EventMetric, msg, e.Meta, now, &payload)
}

// appendEvent pushes a feed entry. The id is the sequence number unless that
// id is already held by a retained entry, which happens on duplicate
// delivery; then a generated id keeps ids unique.
func (r *Reconciler) appendEvent(typ models.EventType, msg string, meta models.Meta, now time.Time, payload *models.MetricRecord) {
	id := meta.Sequence
	if id == "" || r.feedIDs[id] > 0 {
		id = r.newID()
	}
	ts := meta.Timestamp
	if ts.IsZero() {
		ts = now
	}

	r.feedIDs[id]++
	if old, evicted := r.feed.Push(models.Event{
		ID:        id,
		Type:      typ,
		Message:   msg,
		Timestamp: ts,
		Payload:   payload,
	}); evicted {
		if r.feedIDs[old.ID]--; r.feedIDs[old.ID] <= 0 {
			delete(r.feedIDs, old.ID)
		}
		metrics.FeedEvictions.Inc()
	}
}

func (r *Reconciler) publish(now time.Time) {
	r.version++
	snap := r.buildSnapshot(now)
	r.current.Store(&snap)

	active, idle := r.roster.Counts()
	metrics.SetRosterCounts(active, idle)

	if r.sink != nil {
		r.sink.Publish(snap)
	}
}

// buildSnapshot copies the owned state. Metric payload pointers are shared
// with the feed until a reader takes its Clone.
func (r *Reconciler) buildSnapshot(now time.Time) models.Snapshot {
	devices := r.roster.Devices()
	roster.SortForDisplay(devices)

	return models.Snapshot{
		Devices:         devices,
		Events:          r.feed.Events(),
		Metrics:         r.metrics,
		Stats:           r.stats,
		ActiveDevices:   r.stats.ActiveDevices,
		IdleDevices:     r.stats.IdleDevices,
		NewDevicesToday: r.stats.NewDevicesToday,
		IsConnected:     r.connected,
		ARPRate:         r.rate.Rate(),
		FeedCapacity:    r.feed.Cap(),
		FeedEvicted:     r.feed.Evicted(),
		Version:         r.version,
		GeneratedAt:     now,
	}
}

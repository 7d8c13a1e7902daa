// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package engine wires the feed transport, the decoder and the reconciler
// and runs the liveness poll.
//
// Two producers write to the reconciler actor: the transport read loop
// submits decoded frames and the liveness ticker submits the socket state.
// Neither touches reconciler state directly.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/decoder"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/metrics"
	"github.com/tomtom215/lanwatch/internal/models"
	"github.com/tomtom215/lanwatch/internal/reconciler"
	"github.com/tomtom215/lanwatch/internal/transport"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("engine already started")

// Feed is the connection side of the engine. *transport.Client satisfies it.
type Feed interface {
	Run(ctx context.Context) error
	IsConnected() bool
	Close()
}

// FeedFactory builds a Feed that delivers raw frames to handler.
type FeedFactory func(handler transport.Handler) Feed

// Engine owns one reconciler and one feed connection.
type Engine struct {
	cfg  config.EngineConfig
	rec  *reconciler.Reconciler
	feed Feed
	log  zerolog.Logger

	dropLog *logging.Throttle

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stopOnce sync.Once
	done     chan struct{}
}

// New creates an engine around rec. newFeed is called once with the engine's
// frame handler.
func New(cfg config.EngineConfig, rec *reconciler.Reconciler, newFeed FeedFactory) *Engine {
	e := &Engine{
		cfg:     cfg,
		rec:     rec,
		log:     logging.WithComponent("engine"),
		dropLog: logging.NewThrottle(10*time.Second, 5),
		done:    make(chan struct{}),
	}
	e.feed = newFeed(e.HandleFrame)
	return e
}

// NewFromConfig builds the reconciler and the WebSocket transport from cfg.
func NewFromConfig(cfg *config.Config, sink reconciler.Sink, opts ...reconciler.Option) *Engine {
	rec := reconciler.New(reconciler.Config{
		FeedCapacity: cfg.Engine.FeedCapacity,
		QueueSize:    cfg.Engine.QueueSize,
	}, sink, opts...)

	return New(cfg.Engine, rec, func(handler transport.Handler) Feed {
		return transport.NewClient(&cfg.Feed, handler)
	})
}

// Start launches the reconciler actor, the transport and the liveness poll.
// The engine stops when ctx is canceled or Disconnect is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		if err := e.rec.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			e.log.Error().Err(err).Msg("Reconciler loop exited")
		}
	}()
	go func() {
		defer e.wg.Done()
		if err := e.feed.Run(runCtx); err != nil {
			e.log.Error().Err(err).Msg("Feed transport exited")
		}
	}()
	go func() {
		defer e.wg.Done()
		e.pollLiveness(runCtx)
	}()

	go e.finish(runCtx)

	e.log.Info().Dur("liveness_interval", e.cfg.LivenessInterval).Msg("Engine started")
	return nil
}

// Disconnect tears the engine down. It cancels the liveness poll, closes the
// transport and returns without waiting. Safe to call any number of times,
// before or after Start. Done is closed once teardown completes.
func (e *Engine) Disconnect() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		cancel := e.cancel
		started := e.started
		e.started = true
		e.mu.Unlock()

		e.feed.Close()
		if cancel != nil {
			cancel()
		}
		if !started {
			e.rec.Dispose()
			close(e.done)
		}
	})
}

// finish waits for ctx, then for every goroutine, marks the view
// disconnected and disposes the reconciler.
func (e *Engine) finish(ctx context.Context) {
	<-ctx.Done()
	e.feed.Close()
	e.wg.Wait()

	// The actor has exited, so this goroutine is now the only writer.
	if err := e.rec.SetConnected(false); err != nil {
		e.log.Debug().Err(err).Msg("Final connection update skipped")
	}
	e.rec.Dispose()
	e.log.Info().Msg("Engine stopped")
	close(e.done)
}

// Done is closed when the engine has fully stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Serve runs the engine until ctx is canceled. It implements suture.Service.
func (e *Engine) Serve(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-e.done:
		return nil
	}
	e.Disconnect()
	<-e.done
	return ctx.Err()
}

// Snapshot returns the latest reconciled view.
func (e *Engine) Snapshot() models.Snapshot {
	return e.rec.Snapshot()
}

// IsConnected reports the transport socket state.
func (e *Engine) IsConnected() bool {
	return e.feed.IsConnected()
}

// HandleFrame decodes one raw frame and submits it to the reconciler. It is
// the transport handler and blocks while the reconciler inbox is full.
func (e *Engine) HandleFrame(ctx context.Context, raw []byte) {
	metrics.FramesReceived.Inc()

	frame, err := decoder.Decode(raw)
	if err != nil {
		metrics.RecordDrop("malformed")
		e.logDrop(err, "malformed")
		if frame.Empty() {
			return
		}
	}
	if frame.Unrecognized != "" {
		metrics.RecordDrop("unrecognized")
		e.log.Debug().Str("kind", frame.Unrecognized).Msg("Ignoring unrecognized envelope")
	}

	if err := e.rec.Submit(ctx, frame); err != nil {
		e.log.Debug().Err(err).Msg("Frame not submitted")
	}
}

func (e *Engine) pollLiveness(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.LivenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.rec.SubmitConnection(e.feed.IsConnected()) {
				e.log.Trace().Msg("Reconciler inbox full, liveness sample skipped")
			}
		}
	}
}

func (e *Engine) logDrop(err error, reason string) {
	ok, suppressed := e.dropLog.Allow()
	if !ok {
		return
	}
	ev := e.log.Debug().Err(err).Str("reason", reason)
	if suppressed > 0 {
		ev = ev.Int64("suppressed", suppressed)
	}
	ev.Msg("Dropped feed frame")
}

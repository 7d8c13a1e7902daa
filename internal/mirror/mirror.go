// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package mirror republishes applied envelopes to NATS through Watermill.
//
// The Mirror is registered as a reconciler observer. Observer callbacks only
// enqueue; a separate Serve loop (run under the supervisor) does the network
// publish behind a circuit breaker. When the queue is full the record is
// dropped and counted, so a slow broker never stalls reconciliation.
//
// Subjects:
//
//	<prefix>.topology.joined
//	<prefix>.topology.left
//	<prefix>.metric.periodic
//	<prefix>.stats
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/logging"
	"github.com/tomtom215/lanwatch/internal/metrics"
	"github.com/tomtom215/lanwatch/internal/models"
)

// DefaultQueueSize bounds the records waiting for publish.
const DefaultQueueSize = 256

// StatsSubject is the subject suffix for dashboard stats blocks.
const StatsSubject = "stats"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("mirror: closed")

type outbound struct {
	subject string
	record  Record
}

// Mirror forwards applied envelopes to a Watermill publisher.
type Mirror struct {
	pub     message.Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
	prefix  string
	queue   chan outbound
	logger  zerolog.Logger
	errLog  *logging.Throttle

	closed    atomic.Bool
	closeOnce sync.Once
}

// New connects a core NATS publisher for cfg. JetStream is not used; the
// mirror is a live tap, not a durable log.
func New(cfg config.MirrorConfig) (*Mirror, error) {
	logger := logging.WithComponent("mirror")
	wmLogger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandlerWithLogger(logger)))

	natsOpts := []natsgo.Option{
		natsgo.Name("lanwatch-mirror"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return NewWithPublisher(pub, cfg.SubjectPrefix, DefaultQueueSize), nil
}

// NewWithPublisher wraps an existing Watermill publisher.
func NewWithPublisher(pub message.Publisher, prefix string, queueSize int) *Mirror {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	m := &Mirror{
		pub:    pub,
		prefix: prefix,
		queue:  make(chan outbound, queueSize),
		logger: logging.WithComponent("mirror"),
		errLog: logging.NewThrottle(10*time.Second, 1),
	}
	m.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "nats-mirror",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return m
}

// Subject returns the full subject for a suffix such as "topology.joined".
func (m *Mirror) Subject(suffix string) string {
	return m.prefix + "." + suffix
}

// EnvelopeApplied enqueues an applied envelope. It never blocks.
func (m *Mirror) EnvelopeApplied(env models.Envelope) {
	if env == nil {
		return
	}
	m.enqueue(m.Subject(string(env.Kind())), RecordFromEnvelope(env))
}

// StatsApplied enqueues a stats block. It never blocks.
func (m *Mirror) StatsApplied(stats models.DashboardStats) {
	m.enqueue(m.Subject(StatsSubject), RecordFromStats(stats))
}

func (m *Mirror) enqueue(subject string, rec Record) {
	if m.closed.Load() {
		return
	}
	select {
	case m.queue <- outbound{subject: subject, record: rec}:
	default:
		metrics.RecordDrop("mirror_queue_full")
	}
}

// Serve publishes queued records until ctx is done.
func (m *Mirror) Serve(ctx context.Context) error {
	m.logger.Info().Str("prefix", m.prefix).Msg("Mirror started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out := <-m.queue:
			if err := m.Publish(out.subject, out.record); err != nil {
				if ok, suppressed := m.errLog.Allow(); ok {
					m.logger.Warn().Err(err).Str("subject", out.subject).
						Int64("suppressed", suppressed).Msg("Mirror publish failed")
				}
			}
		}
	}
}

// Publish sends one record synchronously through the circuit breaker.
func (m *Mirror) Publish(subject string, rec Record) error {
	if m.closed.Load() {
		return ErrClosed
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", rec.Kind, err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("kind", rec.Kind)
	if rec.Sequence != "" {
		msg.Metadata.Set("sequence", rec.Sequence)
	}
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.pub.Publish(subject, msg)
	})
	metrics.RecordMirrorPublish(subject, err)
	return err
}

// Pending reports the number of queued records.
func (m *Mirror) Pending() int {
	return len(m.queue)
}

// Close stops accepting records and closes the publisher. Idempotent.
func (m *Mirror) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		err = m.pub.Close()
	})
	return err
}

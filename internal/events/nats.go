package events

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fbmp/internal/config"

	"github.com/nats-io/nats.go"
)

var _ Bus = (*NATSBus)(nil)

// NATSBus publishes listing events to JetStream.
type NATSBus struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	ackTimeout time.Duration
	log        *slog.Logger
}

func NewNATSBus(cfg config.Events, logger *slog.Logger) (*NATSBus, error) {
	conn, err := nats.Connect(cfg.NATSEndpoint,
		nats.Name("fbmp-listings"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(3*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected, buffering publishes", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		// Fires after Drain as well, so a close here is not fatal.
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open jetstream context: %w", err)
	}

	bus := &NATSBus{
		conn:       conn,
		js:         js,
		ackTimeout: cfg.PublishTimeout,
		log:        logger,
	}

	if cfg.Stream != "" {
		subjects := []string{cfg.ListingCreated, cfg.ListingUpdated, cfg.ListingDeleted}
		if err := bus.ensureStream(cfg.Stream, subjects); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return bus, nil
}

// ensureStream creates the stream that captures the listing subjects unless
// it already exists. The duplicate window is what makes msg ids dedupe.
func (b *NATSBus) ensureStream(name string, subjects []string) error {
	_, err := b.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("look up stream %s: %w", name, err)
	}

	b.log.Info("Creating event stream", "stream", name, "subjects", subjects)
	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

func (b *NATSBus) Publish(subject string, data []byte, msgId string) error {
	b.log.Debug("Publishing event", "subject", subject, "msg_id", msgId, "data_size", len(data))

	opts := []nats.PubOpt{nats.MsgId(msgId)}
	if b.ackTimeout > 0 {
		opts = append(opts, nats.AckWait(b.ackTimeout))
	}

	ack, err := b.js.Publish(subject, data, opts...)
	if err != nil {
		return err
	}
	if ack.Duplicate {
		b.log.Debug("Event already stored", "subject", subject, "msg_id", msgId)
	}
	return nil
}

func (b *NATSBus) Drain() error {
	b.log.Info("Draining events")
	return b.conn.Drain()
}

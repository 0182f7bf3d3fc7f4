package nats

import (
	"context"
	"log/slog"
	"time"

	"admin-alerts/internal/domain/event"
	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/usecase/commands"

	"github.com/nats-io/nats.go"
)

// Dispatcher is the slice of the command layer the consumer needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, env *event.Envelope) error
}

// Consumer subscribes the pipeline's queue group to the business-event
// subjects. Retryable dispatch failures are redelivered in-process with
// backoff; exhausted envelopes go to the dead-letter subject.
type Consumer struct {
	conn       *nats.Conn
	dispatcher Dispatcher
	cfg        config.NATSConfig
	logger     *slog.Logger
	subs       []*nats.Subscription
}

func NewConsumer(conn *nats.Conn, dispatcher Dispatcher, cfg config.NATSConfig, logger *slog.Logger) *Consumer {
	return &Consumer{
		conn:       conn,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	for _, subject := range c.cfg.Subjects {
		sub, err := c.conn.QueueSubscribe(subject, c.cfg.QueueGroup, func(msg *nats.Msg) {
			c.handle(ctx, msg)
		})
		if err != nil {
			c.Stop()
			return err
		}
		c.subs = append(c.subs, sub)
		c.logger.Info("subscribed to event subject", "subject", subject, "queue_group", c.cfg.QueueGroup)
	}
	return nil
}

func (c *Consumer) Stop() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	c.subs = nil
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) {
	env, err := event.Decode(msg.Data)
	if err != nil {
		// Malformed or unknown-kind envelopes cannot succeed on redelivery.
		c.logger.Warn("dropping undecodable event", "subject", msg.Subject, "error", err)
		return
	}

	if err := c.dispatchWithRetry(ctx, env); err != nil {
		c.logger.Error("event exhausted redeliveries, dead-lettering",
			"subject", msg.Subject, "correlation_id", env.CorrelationID(), "error", err)
		c.deadLetter(msg)
	}
}

// dispatchWithRetry redelivers retryable failures up to MaxRedeliveries, with
// delay base<<attempt between tries. Non-retryable errors stop immediately.
func (c *Consumer) dispatchWithRetry(ctx context.Context, env *event.Envelope) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRedeliveries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.cfg.RedeliveryBase << uint(attempt-1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.dispatcher.Dispatch(ctx, env)
		if err == nil {
			return nil
		}
		if !commands.IsRetryable(err) {
			c.logger.Warn("event dispatch failed, not retrying",
				"kind", env.Kind(), "correlation_id", env.CorrelationID(), "error", err)
			return nil
		}
		lastErr = err
		c.logger.Warn("retryable dispatch failure",
			"kind", env.Kind(), "correlation_id", env.CorrelationID(),
			"attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (c *Consumer) deadLetter(msg *nats.Msg) {
	if c.cfg.DeadLetterSubject == "" {
		return
	}
	if err := c.conn.Publish(c.cfg.DeadLetterSubject, msg.Data); err != nil {
		c.logger.Error("failed to publish to dead-letter subject",
			"subject", c.cfg.DeadLetterSubject, "error", err)
	}
}

// Connect dials the broker with reconnect handling suited to a long-running
// consumer.
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, func(), error) {
	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	return conn, cleanup, nil
}

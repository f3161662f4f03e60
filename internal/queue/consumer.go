package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

// Consumer reads listing.created deliveries and passes them to a Handler.
type Consumer struct {
	url     string
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(url string, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, handler: handler, logger: logger}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff whenever the connection or channel drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("listing consumer: dial failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", backoff),
			)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("listing consumer: loop ended, reconnecting", slog.String("error", err.Error()))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("listing consumer: set QoS failed", slog.String("error", err.Error()))
	}
	if _, err := ch.QueueDeclare(ListingCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ListingCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.logger.Info("listing consumer started", slog.String("queue", ListingCreatedQueue))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.logger.Error("listing consumer: handle failed", slog.String("error", err.Error()))
				// dropped, not requeued, so a poison message cannot spin
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev ListingCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.handler(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

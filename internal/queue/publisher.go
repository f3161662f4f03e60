package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes listing events to RabbitMQ over one long-lived
// connection. A dropped connection is redialed on the next publish.
type AMQPPublisher struct {
	url  string
	mu   sync.Mutex
	conn *amqp.Connection
}

// NewAMQPPublisher dials url and declares the listing queue.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.connection(); err != nil {
		return nil, err
	}
	return p, nil
}

// connection must be called with mu held.
func (p *AMQPPublisher) connection() (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.conn = conn
	return conn, nil
}

func (p *AMQPPublisher) PublishListingCreated(ctx context.Context, ev ListingCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	conn, err := p.connection()
	p.mu.Unlock()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ListingCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ListingCreatedQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", ListingCreatedQueue, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// InProcessPublisher hands events straight to a handler. It stands in for
// the broker when RABBITMQ_URL is unset.
type InProcessPublisher struct {
	handler Handler
	logger  *slog.Logger
}

func NewInProcessPublisher(handler Handler, logger *slog.Logger) *InProcessPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessPublisher{handler: handler, logger: logger}
}

// PublishListingCreated runs the handler on a context detached from the
// caller's cancellation, so a finished HTTP request does not abort it.
func (p *InProcessPublisher) PublishListingCreated(ctx context.Context, ev ListingCreatedEvent) error {
	if p.handler == nil {
		return nil
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.handler(hctx, ev); err != nil {
		p.logger.Error("listing event handler failed",
			slog.String("listing_id", ev.ListingID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

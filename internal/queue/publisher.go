package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher holds a lazily-(re)established RabbitMQ connection and
// publishes order events fire-and-forget. Every failure is logged and
// swallowed: publishing a domain event must never fail the request that
// triggered it (spec §6, best-effort domain events).
//
// Grounded on the teacher's service/queue_publisher.go, reworked to keep a
// single long-lived connection (reconnected lazily per the reconnect idiom
// in the teacher's queue/consumer.go) instead of dialing on every publish.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher returns a Publisher that will dial url on first use.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish sends event on the queue named by routingKey. Errors are logged
// and discarded and never reach the caller. Dialing and publishing run on
// the caller's goroutine; the publish step is bounded by a 2-second
// timeout, the dial is not.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event OrderEvent) {
	event.PublishedAt = time.Now().UTC()

	conn, err := p.connection()
	if err != nil {
		slog.Warn("queue: publish skipped, no broker connection", "routing_key", routingKey, "order_id", event.OrderID, "err", err)
		return
	}

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("queue: channel open failed", "routing_key", routingKey, "order_id", event.OrderID, "err", err)
		p.reset()
		return
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
		slog.Warn("queue: queue declare failed", "routing_key", routingKey, "order_id", event.OrderID, "err", err)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		slog.Warn("queue: marshal event failed", "routing_key", routingKey, "order_id", event.OrderID, "err", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err = ch.PublishWithContext(publishCtx, "", routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.PublishedAt,
		Body:         body,
	})
	if err != nil {
		slog.Warn("queue: publish failed", "routing_key", routingKey, "order_id", event.OrderID, "err", err)
	}
}

// connection returns the live connection, dialing (or re-dialing after a
// prior failure) on demand.
func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

func (p *Publisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the underlying broker connection, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"user-crud-service/internal/usecase/user"
	"user-crud-service/pkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes user events as persistent JSON messages to a durable queue
// through the default exchange.
type RabbitPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     channel
	queue  string
	log    *zap.Logger
	closed bool
}

// NewRabbitPublisher dials url, opens a channel and declares queue.
func NewRabbitPublisher(url, queue string, log *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	log.Info("event publisher connected", zap.String("queue", queue))

	p := newPublisher(ch, queue, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, queue: queue, log: log}
}

// Publish sends e to the queue. The message type is the event type.
func (p *RabbitPublisher) Publish(ctx context.Context, e user.Event) error {
	msg, err := message(ctx, e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	if err := p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}

	logger.WithContext(ctx, p.log).Debug("event published",
		zap.String("type", e.Type),
		zap.String("user_id", e.UserID),
	)
	return nil
}

// Close closes the channel and the connection. It is safe to call more than once.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.log.Info("event publisher closed")
	return errors.Join(errs...)
}

func message(ctx context.Context, e user.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode %s event: %w", e.Type, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         e.Type,
		Timestamp:    e.OccurredAt.UTC(),
		Body:         body,
	}
	if id := logger.GetRequestID(ctx); id != "" {
		msg.CorrelationId = id
	}
	return msg, nil
}

// NopPublisher drops every event. It stands in when publishing is disabled.
type NopPublisher struct{}

// Publish implements user.EventPublisher.
func (NopPublisher) Publish(context.Context, user.Event) error { return nil }

// Close implements io.Closer.
func (NopPublisher) Close() error { return nil }

package infrastructure

import (
	"fmt"
	"io"

	"user-crud-service/internal/adapter/events"
	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"

	"go.uber.org/zap"
)

// EventPublisher is a closable user.EventPublisher.
type EventPublisher interface {
	user.EventPublisher
	io.Closer
}

// NewEventPublisher connects to the broker when events are enabled and
// returns a publisher that drops events otherwise.
func NewEventPublisher(cfg *config.Config, l *zap.Logger) (EventPublisher, error) {
	if !cfg.Events.Enabled {
		l.Info("event publishing disabled")
		return events.NopPublisher{}, nil
	}

	p, err := events.NewRabbitPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	return p, nil
}

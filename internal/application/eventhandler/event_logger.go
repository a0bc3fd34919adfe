package eventhandler

import (
	"log/slog"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

// EventLogger пишет каждое доменное событие в журнал.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger создаёт журналирующий обработчик.
func NewEventLogger(logger *slog.Logger) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{logger: logger.With("handler", "event_logger")}
}

// Subscribe регистрирует обработчик на все события.
func (l *EventLogger) Subscribe(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(l.Handle)
}

// Handle реализует интерфейс shared.EventHandler.
func (l *EventLogger) Handle(event shared.Event) error {
	l.logger.Info("domain event",
		"event_type", string(event.EventType()),
		"user_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
		"payload", event.Payload(),
	)
	return nil
}

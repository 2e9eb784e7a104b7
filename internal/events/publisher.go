package events

import (
	"context"
	"log/slog"

	"easybus/pkg/logger"
)

// Publisher ships inventory events after their transaction commits
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the application log. Used when Kafka is off.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &LogPublisher{log: log.WithComponent("inventory-events")}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.log.InfoContext(ctx, "Inventory Event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.String("partition_key", event.PartitionKey()),
		slog.Any("seat_labels", event.SeatLabels),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

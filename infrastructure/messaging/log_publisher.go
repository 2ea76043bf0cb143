// Package messaging holds event publishers that need no cloud service.
package messaging

import (
	"context"

	"go.uber.org/zap"

	"conceptmap/domain/events"
)

// LogPublisher writes domain events to the log. It stands in for
// EventBridge when events are disabled or running locally.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

// Publish logs a single event
func (p *LogPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("mapID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
		zap.Any("event", event),
	)
	return nil
}

// PublishBatch logs events in order
func (p *LogPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

package ports

import (
	"context"

	"conceptmap/domain/events"
)

// EventPublisher delivers domain events to interested parties
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends events in order
	PublishBatch(ctx context.Context, batch []events.DomainEvent) error
}

// SnapshotNotifier pushes map snapshots to connected clients
type SnapshotNotifier interface {
	// Register subscribes a client connection to a map
	Register(ctx context.Context, mapID, connectionID string) error

	// Unregister removes a client connection from every map
	Unregister(ctx context.Context, connectionID string) error

	// Notify sends payload to every connection subscribed to mapID
	Notify(ctx context.Context, mapID string, payload []byte) error
}

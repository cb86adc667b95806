package ports

import (
	"context"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/events"
)

// Pusher delivers notification summaries to a user's live connections.
// Implementations are best effort: Push must not block on delivery and never
// reports failures to the caller.
type Pusher interface {
	Push(ctx context.Context, userID string, summary entities.NotificationSummary)
}

// EventPublisher publishes domain events to the event bus
type EventPublisher interface {
	Publish(ctx context.Context, domainEvents ...events.DomainEvent) error
}

// NoopPusher drops every push. Used where no transport is configured.
type NoopPusher struct{}

func (NoopPusher) Push(context.Context, string, entities.NotificationSummary) {}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }

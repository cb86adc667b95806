package di

import (
	"context"

	"linklist-backend/application/ports"
	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/events"
	"linklist-backend/pkg/observability"
)

// meteredPublisher counts engagement events on their way to the bus
type meteredPublisher struct {
	next    ports.EventPublisher
	metrics *observability.Collector
}

func (p meteredPublisher) Publish(ctx context.Context, evs ...events.DomainEvent) error {
	for _, e := range evs {
		switch ev := e.(type) {
		case events.VoteCast:
			p.metrics.VotesCast.Inc()
		case events.CommentPosted:
			kind := "comment"
			if ev.ParentID != "" {
				kind = "reply"
			}
			p.metrics.CommentsPosted.WithLabelValues(kind).Inc()
		}
	}
	return p.next.Publish(ctx, evs...)
}

// meteredPusher counts notification records handed to the push path. Every
// created notification is pushed exactly once.
type meteredPusher struct {
	next    ports.Pusher
	metrics *observability.Collector
}

func (p meteredPusher) Push(ctx context.Context, userID string, summary entities.NotificationSummary) {
	p.metrics.NotificationsCreated.Inc()
	p.next.Push(ctx, userID, summary)
}

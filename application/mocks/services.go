package mocks

import (
	"context"
	"sync"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/events"

	"github.com/stretchr/testify/mock"
)

// Pusher is a mock of ports.Pusher
type Pusher struct {
	mock.Mock
}

func (m *Pusher) Push(ctx context.Context, userID string, summary entities.NotificationSummary) {
	m.Called(ctx, userID, summary)
}

// EventPublisher is a mock of ports.EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	args := make([]interface{}, 0, len(domainEvents)+1)
	args = append(args, ctx)
	for _, e := range domainEvents {
		args = append(args, e)
	}
	return m.Called(args...).Error(0)
}

// Push records a delivered summary
type Push struct {
	UserID  string
	Summary entities.NotificationSummary
}

// RecordingPusher captures pushes for assertions where call order matters
// less than the set of recipients.
type RecordingPusher struct {
	mu     sync.Mutex
	pushes []Push
}

func (p *RecordingPusher) Push(_ context.Context, userID string, summary entities.NotificationSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, Push{UserID: userID, Summary: summary})
}

// Pushes returns a copy of everything pushed so far
func (p *RecordingPusher) Pushes() []Push {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Push, len(p.pushes))
	copy(out, p.pushes)
	return out
}

// Recipients returns the user ids pushed to, in push order
func (p *RecordingPusher) Recipients() []string {
	pushes := p.Pushes()
	out := make([]string, 0, len(pushes))
	for _, push := range pushes {
		out = append(out, push.UserID)
	}
	return out
}

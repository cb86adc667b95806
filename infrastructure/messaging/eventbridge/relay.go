package eventbridge

import (
	"context"
	"sync"
	"sync/atomic"

	"linklist-backend/application/ports"
	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/events"
	"linklist-backend/pkg/observability"

	"go.uber.org/zap"
)

type relayItem struct {
	userID  string
	summary entities.NotificationSummary
}

// Relay implements ports.Pusher for processes that hold no connections.
// Pushes are queued and published as NotificationCreated events for the
// process that does. Push never blocks; a full queue drops the push.
type Relay struct {
	publisher ports.EventPublisher
	queue     chan relayItem
	metrics   *observability.Collector
	logger    *zap.Logger

	stopped atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRelay creates a relay with a queue of queueSize pushes. metrics may be nil.
func NewRelay(publisher ports.EventPublisher, queueSize int, metrics *observability.Collector, logger *zap.Logger) *Relay {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		publisher: publisher,
		queue:     make(chan relayItem, queueSize),
		metrics:   metrics,
		logger:    logger,
	}
}

func (r *Relay) Push(_ context.Context, userID string, summary entities.NotificationSummary) {
	if r.stopped.Load() {
		r.drop(userID, "relay stopped")
		return
	}
	select {
	case r.queue <- relayItem{userID: userID, summary: summary}:
	default:
		r.drop(userID, "queue full")
	}
}

func (r *Relay) drop(userID, reason string) {
	if r.metrics != nil {
		r.metrics.RelayDropped.Inc()
	}
	r.logger.Warn("Dropped push", zap.String("userID", userID), zap.String("reason", reason))
}

// Start runs the background worker until Stop
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case item := <-r.queue:
				r.publish(ctx, item)
			}
		}
	}()
}

// Drain publishes everything queued so far. Lambda handlers call it before
// returning since the worker does not run while the function is frozen.
func (r *Relay) Drain(ctx context.Context) {
	for {
		select {
		case item := <-r.queue:
			r.publish(ctx, item)
		default:
			return
		}
	}
}

// Stop refuses new pushes, stops the worker and drains the queue with ctx
func (r *Relay) Stop(ctx context.Context) {
	r.stopped.Store(true)
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.Drain(ctx)
}

func (r *Relay) publish(ctx context.Context, item relayItem) {
	err := r.publisher.Publish(ctx, events.NewNotificationCreated(item.userID, item.summary))
	if err != nil {
		r.logger.Warn("Failed to relay push",
			zap.String("userID", item.userID),
			zap.String("notificationID", item.summary.ID),
			zap.Error(err),
		)
	}
}

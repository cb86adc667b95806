// Package websocket holds the connection registry and the gorilla/websocket
// transport that feeds it.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"linklist-backend/domain/core/entities"
	pkgerrors "linklist-backend/pkg/errors"
	"linklist-backend/pkg/observability"

	"go.uber.org/zap"
)

const shardCount = 32

var (
	ErrBufferFull = errors.New("send buffer full")
	ErrConnClosed = errors.New("connection closed")
)

// Conn is a live push handle. Send must not block.
type Conn interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

type shard struct {
	mu    sync.RWMutex
	users map[string]map[Conn]struct{}
}

// Registry maps user ids to their live connections. It is sharded by user
// id so registrations for different users rarely contend.
type Registry struct {
	shards  [shardCount]*shard
	users   atomic.Int64
	conns   atomic.Int64
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(metrics *observability.Collector, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{metrics: metrics, logger: logger}
	for i := range r.shards {
		r.shards[i] = &shard{users: make(map[string]map[Conn]struct{})}
	}
	if metrics != nil {
		metrics.RegisterGauge("linklist", "ws_connected_users", "Users with at least one live connection",
			func() float64 { return float64(r.ConnectedUserCount()) })
		metrics.RegisterGauge("linklist", "ws_connections", "Live websocket connections",
			func() float64 { return float64(r.TotalConnectionCount()) })
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register adds conn to userID's set. A blank or whitespace-only identity is
// refused and the connection closed.
func (r *Registry) Register(userID string, conn Conn) bool {
	if strings.TrimSpace(userID) == "" {
		_ = conn.Close()
		r.logger.Warn("Refused connection without identity", zap.String("connectionID", conn.ID()))
		return false
	}

	s := r.shardFor(userID)
	s.mu.Lock()
	set, ok := s.users[userID]
	if !ok {
		set = make(map[Conn]struct{})
		s.users[userID] = set
		r.users.Add(1)
	}
	if _, dup := set[conn]; !dup {
		set[conn] = struct{}{}
		r.conns.Add(1)
	}
	n := len(set)
	s.mu.Unlock()

	r.logger.Info("Client registered",
		zap.String("userID", userID),
		zap.String("connectionID", conn.ID()),
		zap.Int("userConnections", n),
	)
	return true
}

// Unregister removes conn and drops the user entry once it is empty
func (r *Registry) Unregister(userID string, conn Conn) {
	s := r.shardFor(userID)
	s.mu.Lock()
	set, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, found := set[conn]; !found {
		s.mu.Unlock()
		return
	}
	delete(set, conn)
	r.conns.Add(-1)
	remaining := len(set)
	if remaining == 0 {
		delete(s.users, userID)
		r.users.Add(-1)
	}
	s.mu.Unlock()

	r.logger.Info("Client unregistered",
		zap.String("userID", userID),
		zap.String("connectionID", conn.ID()),
		zap.Int("remainingConnections", remaining),
	)
}

// ConnectionsOf returns how many live connections userID has
func (r *Registry) ConnectionsOf(userID string) int {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users[userID])
}

// ConnectedUserCount returns the number of users with a live connection
func (r *Registry) ConnectedUserCount() int {
	return int(r.users.Load())
}

// TotalConnectionCount returns the number of live connections
func (r *Registry) TotalConnectionCount() int {
	return int(r.conns.Load())
}

// Push sends summary to every connection of userID. Failures on one
// connection do not affect the others and are logged, never returned.
func (r *Registry) Push(_ context.Context, userID string, summary entities.NotificationSummary) {
	s := r.shardFor(userID)
	s.mu.RLock()
	targets := make([]Conn, 0, len(s.users[userID]))
	for c := range s.users[userID] {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	if len(targets) == 0 {
		r.logger.Debug("No active connections for user", zap.String("userID", userID))
		return
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		r.logger.Error("Failed to marshal push payload", zap.Error(err), zap.String("notificationID", summary.ID))
		return
	}

	delivered := 0
	for _, c := range targets {
		if err := c.Send(payload); err != nil {
			r.recordFailure(userID, c, err)
			continue
		}
		delivered++
	}
	if r.metrics != nil {
		r.metrics.PushDeliveries.Add(float64(delivered))
	}

	r.logger.Debug("Push complete",
		zap.String("userID", userID),
		zap.String("notificationID", summary.ID),
		zap.Int("delivered", delivered),
		zap.Int("failed", len(targets)-delivered),
	)
}

func (r *Registry) recordFailure(userID string, c Conn, err error) {
	reason := "send_error"
	switch {
	case errors.Is(err, ErrBufferFull):
		reason = "buffer_full"
	case errors.Is(err, ErrConnClosed):
		reason = "closed"
	}
	if r.metrics != nil {
		r.metrics.PushFailures.WithLabelValues(reason).Inc()
	}
	r.logger.Warn("Push delivery failed",
		zap.String("userID", userID),
		zap.String("reason", reason),
		zap.Error(pkgerrors.NewDeliveryError(c.ID(), err)),
	)
}

// Close closes every registered connection. Used on shutdown.
func (r *Registry) Close() {
	for _, s := range r.shards {
		s.mu.Lock()
		for userID, set := range s.users {
			for c := range set {
				_ = c.Close()
				r.conns.Add(-1)
			}
			delete(s.users, userID)
			r.users.Add(-1)
		}
		s.mu.Unlock()
	}
	r.logger.Info("All connections closed")
}

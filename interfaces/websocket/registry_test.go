package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"linklist-backend/domain/core/entities"
	"linklist-backend/pkg/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id      string
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	closed  bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func summary() entities.NotificationSummary {
	return entities.NotificationSummary{
		ID:            "n1",
		Type:          "COMMENT",
		EntityType:    "LIST",
		EntityID:      "l1",
		ActorUsername: "alice",
		Preview:       "hello",
		TargetID:      "c1",
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRegistry_RegisterRefusesBlankIdentity(t *testing.T) {
	r := NewRegistry(nil, nil)
	c := newFakeConn("c1")

	assert.False(t, r.Register("", c))
	assert.True(t, c.closed)

	for _, blank := range []string{"   ", "\t", " \n "} {
		c := newFakeConn("blank")
		assert.False(t, r.Register(blank, c), "%q", blank)
		assert.True(t, c.closed, "%q", blank)
	}
	assert.Equal(t, 0, r.TotalConnectionCount())
	assert.Equal(t, 0, r.ConnectedUserCount())
}

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry(nil, nil)
	a1, a2, b1 := newFakeConn("a1"), newFakeConn("a2"), newFakeConn("b1")

	require.True(t, r.Register("alice", a1))
	require.True(t, r.Register("alice", a2))
	require.True(t, r.Register("alice", a2))
	require.True(t, r.Register("bob", b1))
	assert.Equal(t, 2, r.ConnectedUserCount())
	assert.Equal(t, 3, r.TotalConnectionCount())
	assert.Equal(t, 2, r.ConnectionsOf("alice"))

	r.Push(context.Background(), "alice", summary())
	assert.Len(t, a1.messages(), 1)
	assert.Len(t, a2.messages(), 1)
	assert.Empty(t, b1.messages())

	r.Unregister("alice", a1)
	r.Unregister("alice", a1)
	assert.Equal(t, 2, r.ConnectedUserCount())
	r.Unregister("alice", a2)
	assert.Equal(t, 1, r.ConnectedUserCount())
	assert.Equal(t, 1, r.TotalConnectionCount())
	assert.Equal(t, 0, r.ConnectionsOf("alice"))

	r.Unregister("carol", b1)
	assert.Equal(t, 1, r.TotalConnectionCount())
}

func TestRegistry_PushSkipsFailingHandle(t *testing.T) {
	metrics := observability.NewCollector("test")
	r := NewRegistry(metrics, nil)
	good1, bad, good2 := newFakeConn("g1"), newFakeConn("bad"), newFakeConn("g2")
	bad.sendErr = ErrBufferFull
	other := newFakeConn("o1")

	r.Register("alice", good1)
	r.Register("alice", bad)
	r.Register("alice", good2)
	r.Register("bob", other)

	r.Push(context.Background(), "alice", summary())

	for _, c := range []*fakeConn{good1, good2} {
		msgs := c.messages()
		require.Len(t, msgs, 1, c.id)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(msgs[0], &got))
		assert.Equal(t, "COMMENT", got["type"])
		assert.Equal(t, "LIST", got["entityType"])
		assert.Equal(t, "l1", got["entityId"])
		assert.Equal(t, "alice", got["actorUsername"])
		assert.Equal(t, "c1", got["targetId"])
	}
	assert.Empty(t, other.messages())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PushFailures.WithLabelValues("buffer_full")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PushDeliveries))
}

func TestRegistry_PushUnknownUser(t *testing.T) {
	r := NewRegistry(nil, nil)
	assert.NotPanics(t, func() { r.Push(context.Background(), "nobody", summary()) })
}

func TestRegistry_OtherSendErrors(t *testing.T) {
	metrics := observability.NewCollector("test")
	r := NewRegistry(metrics, nil)
	c := newFakeConn("c1")
	c.sendErr = errors.New("broken pipe")
	r.Register("alice", c)

	r.Push(context.Background(), "alice", summary())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PushFailures.WithLabelValues("send_error")))
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry(nil, nil)
	const users, perUser = 50, 4

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(u, i int) {
				defer wg.Done()
				userID := fmt.Sprintf("user-%d", u)
				c := newFakeConn(fmt.Sprintf("%d-%d", u, i))
				r.Register(userID, c)
				r.Push(context.Background(), userID, summary())
				if i%2 == 0 {
					r.Unregister(userID, c)
				}
			}(u, i)
		}
	}
	wg.Wait()

	assert.Equal(t, users, r.ConnectedUserCount())
	assert.Equal(t, users*perUser/2, r.TotalConnectionCount())
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(nil, nil)
	a, b := newFakeConn("a"), newFakeConn("b")
	r.Register("alice", a)
	r.Register("bob", b)

	r.Close()
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, 0, r.ConnectedUserCount())
	assert.Equal(t, 0, r.TotalConnectionCount())
}

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linklist-backend/pkg/auth"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "ws-secret"

func newTestServer(t *testing.T, cfg ServerConfig) (*Registry, *httptest.Server) {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: testSecret})
	require.NoError(t, err)

	registry := NewRegistry(nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(NewServer(registry, validator, cfg, nil).HandleWebSocket))
	t.Cleanup(func() {
		registry.Close()
		srv.Close()
	})
	return registry, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServer_TokenQueryAndPush(t *testing.T) {
	registry, srv := newTestServer(t, DefaultServerConfig())
	token, err := auth.NewJWTGenerator(testSecret, "", time.Minute).GenerateToken("alice", "alice", nil)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readJSON(t, conn)
	assert.Equal(t, "CONNECTION_ESTABLISHED", hello["type"])
	assert.Equal(t, "alice", hello["userId"])
	assert.Eventually(t, func() bool { return registry.ConnectionsOf("alice") == 1 }, time.Second, 10*time.Millisecond)

	registry.Push(context.Background(), "alice", summary())
	msg := readJSON(t, conn)
	assert.Equal(t, "n1", msg["id"])
	assert.Equal(t, "hello", msg["preview"])
}

func TestServer_RejectsMissingToken(t *testing.T) {
	_, srv := newTestServer(t, DefaultServerConfig())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_TrustedHeader(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.TrustIdentityHeader = true
	registry, srv := newTestServer(t, cfg)

	header := http.Header{}
	header.Set(IdentityHeader, "bob")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()

	readJSON(t, conn)
	assert.Eventually(t, func() bool { return registry.ConnectionsOf("bob") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return registry.TotalConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_HeaderIgnoredUnlessTrusted(t *testing.T) {
	_, srv := newTestServer(t, DefaultServerConfig())

	header := http.Header{}
	header.Set(IdentityHeader, "bob")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_ConnectionLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxConnsPerUser = 1
	cfg.TrustIdentityHeader = true
	registry, srv := newTestServer(t, cfg)

	header := http.Header{}
	header.Set(IdentityHeader, "carol")
	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer first.Close()
	readJSON(t, first)
	require.Eventually(t, func() bool { return registry.ConnectionsOf("carol") == 1 }, time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestClient_SendAfterCloseAndBufferFull(t *testing.T) {
	c := &Client{send: make(chan []byte, 1), done: make(chan struct{})}
	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), ErrBufferFull)

	close(c.done)
	assert.ErrorIs(t, c.Send([]byte("c")), ErrConnClosed)
}

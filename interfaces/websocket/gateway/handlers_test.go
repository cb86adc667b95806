package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/events"
	"linklist-backend/infrastructure/persistence/dynamodb"
	"linklist-backend/infrastructure/push/apigateway"
	"linklist-backend/pkg/auth"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "gateway-secret"

type mockConnections struct{ mock.Mock }

func (m *mockConnections) Save(ctx context.Context, conn dynamodb.Connection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *mockConnections) Delete(ctx context.Context, connectionID string) error {
	return m.Called(ctx, connectionID).Error(0)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, userID string, summary entities.NotificationSummary) (apigateway.Result, error) {
	args := m.Called(ctx, userID, summary)
	return args.Get(0).(apigateway.Result), args.Error(1)
}

type passthroughTracer struct{ names []string }

func (t *passthroughTracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	t.names = append(t.names, name)
	return fn(ctx)
}

func newHandlers(t *testing.T) (*Handlers, *mockConnections, *mockDispatcher, *passthroughTracer) {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: secret})
	require.NoError(t, err)

	conns := &mockConnections{}
	dispatcher := &mockDispatcher{}
	tracer := &passthroughTracer{}
	h := New(validator, conns, dispatcher, tracer, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h, conns, dispatcher, tracer
}

func connectRequest(token string) lambdaevents.APIGatewayWebsocketProxyRequest {
	req := lambdaevents.APIGatewayWebsocketProxyRequest{
		RequestContext: lambdaevents.APIGatewayWebsocketProxyRequestContext{
			ConnectionID: "conn-1",
			DomainName:   "abc.execute-api.us-east-1.amazonaws.com",
			Stage:        "prod",
		},
	}
	if token != "" {
		req.QueryStringParameters = map[string]string{"token": token}
	}
	return req
}

func TestConnect(t *testing.T) {
	h, conns, _, _ := newHandlers(t)
	token, err := auth.NewJWTGenerator(secret, "", time.Hour).GenerateToken("u1", "alice", nil)
	require.NoError(t, err)

	conns.On("Save", mock.Anything, dynamodb.Connection{
		ConnectionID: "conn-1",
		UserID:       "u1",
		Endpoint:     "https://abc.execute-api.us-east-1.amazonaws.com/prod",
		ConnectedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}).Return(nil).Once()

	resp, err := h.Connect(context.Background(), connectRequest(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	conns.AssertExpectations(t)
}

func TestConnect_Rejects(t *testing.T) {
	h, conns, _, _ := newHandlers(t)

	resp, _ := h.Connect(context.Background(), connectRequest(""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, _ := auth.NewJWTGenerator("other", "", time.Hour).GenerateToken("u1", "", nil)
	resp, _ = h.Connect(context.Background(), connectRequest(forged))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	noValidator := New(nil, conns, nil, nil, zap.NewNop())
	token, _ := auth.NewJWTGenerator(secret, "", time.Hour).GenerateToken("u1", "", nil)
	resp, _ = noValidator.Connect(context.Background(), connectRequest(token))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conns.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestConnect_SaveFailure(t *testing.T) {
	h, conns, _, _ := newHandlers(t)
	token, _ := auth.NewJWTGenerator(secret, "", time.Hour).GenerateToken("u1", "", nil)
	conns.On("Save", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	resp, err := h.Connect(context.Background(), connectRequest(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDisconnect(t *testing.T) {
	h, conns, _, _ := newHandlers(t)
	conns.On("Delete", mock.Anything, "conn-1").Return(nil).Once()
	conns.On("Delete", mock.Anything, "conn-2").Return(errors.New("boom")).Once()

	resp, err := h.Disconnect(context.Background(), connectRequest(""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := connectRequest("")
	req.RequestContext.ConnectionID = "conn-2"
	resp, err = h.Disconnect(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	conns.AssertExpectations(t)
}

func TestDefault(t *testing.T) {
	h, _, _, _ := newHandlers(t)
	resp, err := h.Default(context.Background(), lambdaevents.APIGatewayWebsocketProxyRequest{Body: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Body)
}

func TestDeliver(t *testing.T) {
	h, _, dispatcher, tracer := newHandlers(t)
	summary := entities.NotificationSummary{ID: "n1", Type: "comment", EntityType: "LIST", EntityID: "l1"}
	detail, err := json.Marshal(events.NewNotificationCreated("owner", summary))
	require.NoError(t, err)

	dispatcher.On("Dispatch", mock.Anything, "owner", mock.MatchedBy(func(s entities.NotificationSummary) bool {
		return s.ID == "n1" && s.EntityID == "l1"
	})).Return(apigateway.Result{Delivered: 2}, nil).Once()

	err = h.Deliver(context.Background(), lambdaevents.CloudWatchEvent{ID: "e1", Detail: detail})
	require.NoError(t, err)
	assert.Equal(t, []string{"push.dispatch"}, tracer.names)
	dispatcher.AssertExpectations(t)
}

func TestDeliver_Errors(t *testing.T) {
	h, _, dispatcher, _ := newHandlers(t)

	err := h.Deliver(context.Background(), lambdaevents.CloudWatchEvent{Detail: json.RawMessage(`{"summary":{}}`)})
	assert.NoError(t, err, "events without a recipient are dropped")
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)

	detail, _ := json.Marshal(events.NewNotificationCreated("owner", entities.NotificationSummary{ID: "n1"}))
	dispatcher.On("Dispatch", mock.Anything, "owner", mock.Anything).Return(apigateway.Result{}, errors.New("lookup failed"))
	err = h.Deliver(context.Background(), lambdaevents.CloudWatchEvent{Detail: detail})
	assert.EqualError(t, err, "lookup failed")
}

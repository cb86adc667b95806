// Package gateway holds the Lambda handlers behind the API Gateway
// WebSocket API: $connect, $disconnect and the EventBridge rule that
// delivers NotificationCreated events.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"linklist-backend/domain/core/entities"
	"linklist-backend/infrastructure/messaging/eventbridge"
	"linklist-backend/infrastructure/persistence/dynamodb"
	"linklist-backend/infrastructure/push/apigateway"
	"linklist-backend/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// ConnectionStore persists live connections
type ConnectionStore interface {
	Save(ctx context.Context, conn dynamodb.Connection) error
	Delete(ctx context.Context, connectionID string) error
}

// Dispatcher delivers a summary to every connection of a user
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, summary entities.NotificationSummary) (apigateway.Result, error)
}

// Tracer wraps a unit of work in a trace segment
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error
}

// Handlers implements the three WebSocket Lambda entry points
type Handlers struct {
	validator   auth.TokenValidator
	connections ConnectionStore
	dispatcher  Dispatcher
	tracer      Tracer
	logger      *zap.Logger
	now         func() time.Time
}

// New creates the handlers. validator may be nil, in which case every
// connect is refused.
func New(validator auth.TokenValidator, connections ConnectionStore, dispatcher Dispatcher, tracer Tracer, logger *zap.Logger) *Handlers {
	return &Handlers{
		validator:   validator,
		connections: connections,
		dispatcher:  dispatcher,
		tracer:      tracer,
		logger:      logger,
		now:         time.Now,
	}
}

// Connect authenticates the token query parameter and records the connection
func (h *Handlers) Connect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	token := req.QueryStringParameters["token"]
	if token == "" {
		h.logger.Warn("Connection request missing token", zap.String("connectionID", connectionID))
		return status(http.StatusUnauthorized), nil
	}
	if h.validator == nil {
		h.logger.Error("No token validator configured")
		return status(http.StatusUnauthorized), nil
	}

	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		h.logger.Warn("Invalid token on connect",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return status(http.StatusUnauthorized), nil
	}

	conn := dynamodb.Connection{
		ConnectionID: connectionID,
		UserID:       claims.UserID,
		Endpoint:     callbackEndpoint(req.RequestContext),
		ConnectedAt:  h.now().UTC(),
	}
	if err := h.connections.Save(ctx, conn); err != nil {
		h.logger.Error("Failed to save connection",
			zap.String("connectionID", connectionID),
			zap.String("userID", claims.UserID),
			zap.Error(err),
		)
		return status(http.StatusInternalServerError), nil
	}

	h.logger.Info("Connection established",
		zap.String("connectionID", connectionID),
		zap.String("userID", claims.UserID),
	)
	return status(http.StatusOK), nil
}

// Disconnect forgets the connection. A failure is logged but still answers
// 200: API Gateway has already closed the socket and the record expires
// through its TTL.
func (h *Handlers) Disconnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	if err := h.connections.Delete(ctx, connectionID); err != nil {
		h.logger.Error("Failed to delete connection", zap.String("connectionID", connectionID), zap.Error(err))
		return status(http.StatusOK), nil
	}
	h.logger.Info("Connection closed", zap.String("connectionID", connectionID))
	return status(http.StatusOK), nil
}

// Default answers any other route so clients sending pings are not closed
func (h *Handlers) Default(_ context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	if strings.TrimSpace(req.Body) == "ping" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Body: "pong"}, nil
	}
	return status(http.StatusOK), nil
}

// Deliver pushes a NotificationCreated event to its recipient's connections.
// An undecodable event is dropped so the rule does not retry it forever;
// delivery errors are returned so EventBridge retries.
func (h *Handlers) Deliver(ctx context.Context, event events.CloudWatchEvent) error {
	created, err := eventbridge.DecodeNotificationCreated(event.Detail)
	if err != nil {
		h.logger.Error("Dropping undecodable event",
			zap.String("eventID", event.ID),
			zap.String("detailType", event.DetailType),
			zap.Error(err),
		)
		return nil
	}

	return h.tracer.TraceFunction(ctx, "push.dispatch", func(ctx context.Context) error {
		result, err := h.dispatcher.Dispatch(ctx, created.RecipientID, created.Summary)
		if err != nil {
			return err
		}
		h.logger.Debug("Notification dispatched",
			zap.String("userID", created.RecipientID),
			zap.String("notificationID", created.Summary.ID),
			zap.Int("delivered", result.Delivered),
			zap.Int("gone", result.Gone),
			zap.Int("failed", result.Failed),
		)
		return nil
	})
}

func callbackEndpoint(rc events.APIGatewayWebsocketProxyRequestContext) string {
	if rc.DomainName == "" {
		return ""
	}
	return "https://" + rc.DomainName + "/" + rc.Stage
}

func status(code int) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]int{"statusCode": code})
	return events.APIGatewayProxyResponse{StatusCode: code, Body: string(body)}
}

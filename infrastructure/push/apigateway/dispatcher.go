// Package apigateway delivers pushes to API Gateway WebSocket connections
// from Lambda, where no process holds the sockets itself.
package apigateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"linklist-backend/domain/core/entities"
	"linklist-backend/infrastructure/persistence/dynamodb"
	pkgerrors "linklist-backend/pkg/errors"
	"linklist-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// PostToConnectionAPI is the subset of the management API client used here
type PostToConnectionAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// ConnectionStore finds and forgets a user's connection records
type ConnectionStore interface {
	ListByUser(ctx context.Context, userID string) ([]dynamodb.Connection, error)
	Delete(ctx context.Context, connectionID string) error
}

// ClientFactory builds a management API client for a callback endpoint
type ClientFactory func(endpoint string) PostToConnectionAPI

// NewClientFactory returns a factory backed by cfg
func NewClientFactory(cfg aws.Config) ClientFactory {
	return func(endpoint string) PostToConnectionAPI {
		return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
}

// Result counts the outcome of one dispatch
type Result struct {
	Delivered int
	Gone      int
	Failed    int
}

// Dispatcher implements ports.Pusher over API Gateway connections
type Dispatcher struct {
	connections     ConnectionStore
	newClient       ClientFactory
	defaultEndpoint string
	metrics         *observability.DeliveryMetrics
	logger          *zap.Logger

	mu      sync.Mutex
	clients map[string]PostToConnectionAPI
}

// NewDispatcher creates a dispatcher. defaultEndpoint is used for records
// stored without an endpoint. metrics may be nil.
func NewDispatcher(connections ConnectionStore, newClient ClientFactory, defaultEndpoint string, metrics *observability.DeliveryMetrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		connections:     connections,
		newClient:       newClient,
		defaultEndpoint: defaultEndpoint,
		metrics:         metrics,
		logger:          logger,
		clients:         make(map[string]PostToConnectionAPI),
	}
}

// Push delivers summary and logs the outcome
func (d *Dispatcher) Push(ctx context.Context, userID string, summary entities.NotificationSummary) {
	if _, err := d.Dispatch(ctx, userID, summary); err != nil {
		d.logger.Warn("Push dispatch failed", zap.String("userID", userID), zap.Error(err))
	}
}

// Dispatch posts summary to every connection of userID. Connections API
// Gateway reports as gone are deleted. Only a failure to list connections
// is returned; per-connection failures are counted in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, summary entities.NotificationSummary) (Result, error) {
	start := time.Now()
	var res Result

	conns, err := d.connections.ListByUser(ctx, userID)
	if err != nil {
		return res, err
	}
	if len(conns) == 0 {
		return res, nil
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return res, pkgerrors.NewInternalError("failed to encode push payload")
	}

	for _, conn := range conns {
		err := d.post(ctx, conn, payload)
		var gone *types.GoneException
		switch {
		case err == nil:
			res.Delivered++
		case errors.As(err, &gone):
			res.Gone++
			if delErr := d.connections.Delete(ctx, conn.ConnectionID); delErr != nil {
				d.logger.Warn("Failed to delete stale connection",
					zap.String("connectionID", conn.ConnectionID),
					zap.Error(delErr),
				)
			}
		default:
			res.Failed++
			d.logger.Warn("Push delivery failed",
				zap.String("userID", userID),
				zap.Error(pkgerrors.NewDeliveryError(conn.ConnectionID, err)),
			)
		}
	}

	d.metrics.RecordDelivery(ctx, res.Delivered, res.Gone, res.Failed, time.Since(start))
	d.logger.Debug("Push dispatched",
		zap.String("userID", userID),
		zap.String("notificationID", summary.ID),
		zap.Int("delivered", res.Delivered),
		zap.Int("gone", res.Gone),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (d *Dispatcher) post(ctx context.Context, conn dynamodb.Connection, payload []byte) error {
	endpoint := conn.Endpoint
	if endpoint == "" {
		endpoint = d.defaultEndpoint
	}
	if endpoint == "" {
		return errors.New("no callback endpoint for connection")
	}
	_, err := d.client(endpoint).PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(conn.ConnectionID),
		Data:         payload,
	})
	return err
}

func (d *Dispatcher) client(endpoint string) PostToConnectionAPI {
	endpoint = NormalizeEndpoint(endpoint)
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.clients[endpoint]
	if !ok {
		c = d.newClient(endpoint)
		d.clients[endpoint] = c
	}
	return c
}

// NormalizeEndpoint turns "id.execute-api.region.amazonaws.com/stage" into
// an https URL.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasPrefix(endpoint, "wss://") {
		return "https://" + strings.TrimPrefix(endpoint, "wss://")
	}
	if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
		return "https://" + endpoint
	}
	return endpoint
}

//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"linklist-backend/infrastructure/config"

	"github.com/google/wire"
)

// LoggingSet provides the application logger
var LoggingSet = wire.NewSet(
	ProvideLogger,
	ProvideZapLogger,
)

// AWSSet provides the AWS clients
var AWSSet = wire.NewSet(
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
)

// SuperSet is the main provider set containing all providers of the API
var SuperSet = wire.NewSet(
	LoggingSet,
	AWSSet,
	ProvideDynamoDBStore,
	ProvideRepositories,
	ProvideCollector,
	ProvideTracer,
	ProvideEventBridgePublisher,
	ProvideEventPublisher,
	ProvideRelay,
	ProvideRegistry,
	ProvidePusher,
	ProvideVoteService,
	ProvideNotificationService,
	ProvideCommentService,
	ProvideTokenValidator,
	ProvideRateLimiter,
	ProvideUserRateLimiter,
	ProvideErrorHandler,
	ProvideWebSocketServer,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// PushSet provides the WebSocket Lambda functions
var PushSet = wire.NewSet(
	LoggingSet,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideCloudWatchClient,
	ProvideTracer,
	ProvideTokenValidator,
	ProvideConnectionRepository,
	ProvideDeliveryMetrics,
	ProvideDispatcher,
	wire.Struct(new(PushContainer), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}

// InitializePushContainer creates the container of the WebSocket functions
func InitializePushContainer(ctx context.Context, cfg *config.Config) (*PushContainer, error) {
	wire.Build(PushSet)
	return nil, nil
}

package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"linklist-backend/application/ports"
	"linklist-backend/application/services"
	"linklist-backend/infrastructure/config"
	"linklist-backend/infrastructure/logging"
	"linklist-backend/infrastructure/messaging/eventbridge"
	"linklist-backend/infrastructure/persistence/badger"
	"linklist-backend/infrastructure/persistence/dynamodb"
	"linklist-backend/infrastructure/push/apigateway"
	"linklist-backend/interfaces/http/rest"
	"linklist-backend/interfaces/http/rest/handlers"
	"linklist-backend/interfaces/http/rest/middleware"
	"linklist-backend/interfaces/websocket"
	"linklist-backend/pkg/auth"
	pkgerrors "linklist-backend/pkg/errors"
	"linklist-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// MetricsNamespace prefixes every Prometheus metric of the service
const MetricsNamespace = "linklist"

// relayFlushTimeout bounds how long the relay may flush on cleanup
const relayFlushTimeout = 5 * time.Second

// Repositories are the storage ports of the selected backend
type Repositories struct {
	Votes         ports.VoteRepository
	Comments      ports.CommentRepository
	Notifications ports.NotificationRepository
	Ownership     ports.OwnershipLookup

	// Ready reports whether the backend can serve traffic
	Ready rest.ReadinessCheck
}

// ProvideLogger creates the application logger
func ProvideLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.FromConfig(cfg))
}

// ProvideZapLogger exposes the underlying zap logger
func ProvideZapLogger(logger *logging.Logger) *zap.Logger {
	return logger.Logger
}

// ProvideAWSConfig creates AWS configuration. AWS clients built from it are
// traced by X-Ray when tracing is enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.EnableTracing {
		observability.InstrumentAWSConfig(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at a local
// endpoint when one is configured
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDynamoDBStore creates the single-table store
func ProvideDynamoDBStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.Store {
	return dynamodb.NewStore(client, dynamodb.TableConfig{
		TableName: cfg.DynamoDBTable,
		GSI1Name:  cfg.GSI1IndexName,
		GSI2Name:  cfg.GSI2IndexName,
	}, logger)
}

// ProvideRepositories opens the configured storage backend. The cleanup
// closes the embedded database.
func ProvideRepositories(cfg *config.Config, store *dynamodb.Store, logger *zap.Logger) (*Repositories, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageBadger:
		db, err := badger.Open(badger.DefaultConfig(cfg.BadgerPath), logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close badger", zap.Error(err))
			}
		}
		logger.Info("Using embedded storage", zap.String("path", cfg.BadgerPath))
		return &Repositories{
			Votes:         badger.NewVoteRepository(db),
			Comments:      badger.NewCommentRepository(db),
			Notifications: badger.NewNotificationRepository(db),
			Ownership:     badger.NewOwnershipLookup(db),
			Ready:         db.Ping,
		}, cleanup, nil

	case config.StorageDynamoDB:
		logger.Info("Using DynamoDB storage", zap.String("table", cfg.DynamoDBTable))
		return &Repositories{
			Votes:         dynamodb.NewVoteRepository(store).WithLegacyScan(cfg.LegacyVoteScan),
			Comments:      dynamodb.NewCommentRepository(store),
			Notifications: dynamodb.NewNotificationRepository(store),
			Ownership:     dynamodb.NewOwnershipLookup(store),
			Ready:         func(context.Context) error { return nil },
		}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(MetricsNamespace)
}

// ProvideDeliveryMetrics creates the CloudWatch delivery metrics
func ProvideDeliveryMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.DeliveryMetrics {
	return observability.NewDeliveryMetrics(fmt.Sprintf("Linklist/%s", cfg.Environment), client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("linklist", cfg.EnableTracing)
}

// ProvideEventBridgePublisher creates the EventBridge publisher
func ProvideEventBridgePublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) *eventbridge.Publisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, eventbridge.DefaultBreakerConfig(), logger)
}

// ProvideEventPublisher selects where domain events go. Embedded storage
// runs fully offline, so events are only counted there.
func ProvideEventPublisher(cfg *config.Config, bus *eventbridge.Publisher, metrics *observability.Collector) ports.EventPublisher {
	var next ports.EventPublisher = bus
	if cfg.StorageBackend == config.StorageBadger || cfg.EventBusName == "" {
		next = ports.NoopPublisher{}
	}
	return meteredPublisher{next: next, metrics: metrics}
}

// ProvideRelay creates the relay that hands pushes to the bus. The cleanup
// flushes whatever is still queued.
func ProvideRelay(bus *eventbridge.Publisher, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (*eventbridge.Relay, func()) {
	relay := eventbridge.NewRelay(bus, cfg.RelayQueueSize, metrics, logger)
	return relay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), relayFlushTimeout)
		defer cancel()
		relay.Stop(ctx)
	}
}

// ProvideRegistry creates the in-process connection registry
func ProvideRegistry(metrics *observability.Collector, logger *zap.Logger) *websocket.Registry {
	return websocket.NewRegistry(metrics, logger)
}

// ProvidePusher selects the push path. Lambda holds no sockets, so pushes
// travel over the bus to the send-message function; a long running server
// delivers to its own registry.
func ProvidePusher(cfg *config.Config, registry *websocket.Registry, relay *eventbridge.Relay, metrics *observability.Collector) ports.Pusher {
	var next ports.Pusher = registry
	if cfg.IsLambda {
		next = relay
	}
	return meteredPusher{next: next, metrics: metrics}
}

// ProvideTokenValidator creates the JWT validator. Without a key the result
// is nil and only trusted identity headers authenticate.
func ProvideTokenValidator(cfg *config.Config) (auth.TokenValidator, error) {
	var jwtCfg auth.JWTConfig
	switch {
	case cfg.JWTPublicKey != "":
		jwtCfg = auth.JWTConfig{SigningMethod: "RS256", PublicKey: cfg.JWTPublicKey, Issuer: cfg.JWTIssuer}
	case cfg.JWTSecret != "":
		jwtCfg = auth.JWTConfig{SigningMethod: "HS256", SecretKey: cfg.JWTSecret, Issuer: cfg.JWTIssuer}
	default:
		return nil, nil
	}

	validator, err := auth.NewJWTValidator(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("create token validator: %w", err)
	}
	return validator, nil
}

// ProvideRateLimiter creates the per-user write limiter
func ProvideRateLimiter(cfg *config.Config) *auth.TokenBucketLimiter {
	return auth.NewTokenBucketLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

// ProvideUserRateLimiter namespaces the limiter by user
func ProvideUserRateLimiter(limiter *auth.TokenBucketLimiter) *auth.UserRateLimiter {
	return auth.NewUserRateLimiter(limiter)
}

// ProvideVoteService creates the vote service
func ProvideVoteService(repos *Repositories, publisher ports.EventPublisher, logger *zap.Logger) *services.VoteService {
	return services.NewVoteService(repos.Votes, publisher, logger)
}

// ProvideNotificationService creates the notification service
func ProvideNotificationService(repos *Repositories, pusher ports.Pusher, logger *zap.Logger) *services.NotificationService {
	return services.NewNotificationService(repos.Notifications, repos.Comments, repos.Ownership, pusher, logger)
}

// ProvideCommentService creates the comment service
func ProvideCommentService(
	repos *Repositories,
	notifications *services.NotificationService,
	publisher ports.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *services.CommentService {
	return services.NewCommentService(repos.Comments, repos.Ownership, notifications, publisher, cfg.CommentTreeLimit, logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideWebSocketServer creates the local WebSocket endpoint
func ProvideWebSocketServer(registry *websocket.Registry, validator auth.TokenValidator, cfg *config.Config, logger *zap.Logger) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	wsCfg.AllowedOrigins = cfg.AllowOrigins
	wsCfg.TrustIdentityHeader = cfg.TrustIdentityHeader
	return websocket.NewServer(registry, validator, wsCfg, logger)
}

// ProvideRouter assembles the REST router
func ProvideRouter(
	cfg *config.Config,
	votes *services.VoteService,
	comments *services.CommentService,
	notifications *services.NotificationService,
	wsServer *websocket.Server,
	validator auth.TokenValidator,
	limiter *auth.UserRateLimiter,
	metrics *observability.Collector,
	errorHandler *pkgerrors.ErrorHandler,
	repos *Repositories,
	logger *zap.Logger,
) *rest.Router {
	var ws http.Handler
	if !cfg.IsLambda {
		ws = http.HandlerFunc(wsServer.HandleWebSocket)
	}
	var collector *observability.Collector
	if cfg.EnableMetrics {
		collector = metrics
	}

	router := rest.NewRouter(
		rest.RouterConfig{
			EnableCORS:   cfg.EnableCORS,
			AllowOrigins: cfg.AllowOrigins,
			Auth: middleware.AuthConfig{
				Validator:           validator,
				TrustIdentityHeader: cfg.TrustIdentityHeader,
			},
		},
		handlers.NewVoteHandler(votes, errorHandler, logger),
		handlers.NewCommentHandler(comments, errorHandler, logger),
		handlers.NewNotificationHandler(notifications, errorHandler, logger),
		ws,
		limiter,
		collector,
		errorHandler,
		logger,
	)
	router.AddReadinessCheck(repos.Ready)
	return router
}

// ProvideConnectionRepository creates the WebSocket connection store used by
// the Lambda functions
func ProvideConnectionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.ConnectionRepository {
	store := dynamodb.NewStore(client, dynamodb.TableConfig{TableName: cfg.ConnectionsTable}, logger)
	return dynamodb.NewConnectionRepository(store, cfg.ConnectionTTL)
}

// ProvideDispatcher creates the API Gateway push dispatcher
func ProvideDispatcher(
	connections *dynamodb.ConnectionRepository,
	awsCfg aws.Config,
	cfg *config.Config,
	metrics *observability.DeliveryMetrics,
	logger *zap.Logger,
) *apigateway.Dispatcher {
	return apigateway.NewDispatcher(connections, apigateway.NewClientFactory(awsCfg), cfg.WebSocketEndpoint, metrics, logger)
}

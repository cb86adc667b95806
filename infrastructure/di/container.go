// Package di wires the application together with google/wire. wire.go holds
// the injector declarations; wire_gen.go is the generated code.
package di

import (
	"linklist-backend/application/services"
	"linklist-backend/infrastructure/config"
	"linklist-backend/infrastructure/logging"
	"linklist-backend/infrastructure/messaging/eventbridge"
	"linklist-backend/infrastructure/persistence/dynamodb"
	"linklist-backend/infrastructure/push/apigateway"
	"linklist-backend/interfaces/http/rest"
	"linklist-backend/interfaces/websocket"
	"linklist-backend/pkg/auth"
	"linklist-backend/pkg/observability"
)

// Container holds the dependencies of the API processes
type Container struct {
	Config        *config.Config
	Logger        *logging.Logger
	Metrics       *observability.Collector
	Tracer        *observability.Tracer
	Repositories  *Repositories
	Votes         *services.VoteService
	Comments      *services.CommentService
	Notifications *services.NotificationService
	Registry      *websocket.Registry
	Relay         *eventbridge.Relay
	Limiter       *auth.TokenBucketLimiter
	Router        *rest.Router
}

// PushContainer holds the dependencies of the WebSocket Lambda functions
type PushContainer struct {
	Config      *config.Config
	Logger      *logging.Logger
	Tracer      *observability.Tracer
	Validator   auth.TokenValidator
	Connections *dynamodb.ConnectionRepository
	Dispatcher  *apigateway.Dispatcher
}

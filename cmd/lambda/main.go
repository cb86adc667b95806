// Command lambda serves the engagement API behind API Gateway HTTP APIs.
// Pushes go out through the EventBridge relay, drained before each
// invocation returns.
package main

import (
	"context"
	"log"
	"time"

	"linklist-backend/infrastructure/config"
	"linklist-backend/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
	warm      bool
	initTime  time.Time
)

func init() {
	initTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	// the cleanup would only run on shutdown, which Lambda never signals
	c, _, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	container = c
	container.Relay.Start(context.Background())

	mux, ok := container.Router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Router did not produce a chi mux")
	}
	chiLambda = chiadapter.NewV2(mux)

	container.Logger.Info("Lambda initialized",
		zap.Duration("initDuration", time.Since(initTime)),
		zap.String("storage", cfg.StorageBackend),
	)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if !warm {
		container.Logger.Info("Cold start",
			zap.Duration("sinceInit", time.Since(initTime)),
			zap.String("routeKey", req.RouteKey),
		)
		warm = true
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	// the execution environment freezes once we return
	container.Relay.Drain(ctx)
	return resp, err
}

func main() {
	lambda.Start(handler)
}

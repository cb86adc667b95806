// Command ws-connect handles the $connect route of the WebSocket API
package main

import (
	"context"
	"log"

	"linklist-backend/infrastructure/config"
	"linklist-backend/infrastructure/di"
	"linklist-backend/interfaces/websocket/gateway"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := di.InitializePushContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	h := gateway.New(c.Validator, c.Connections, c.Dispatcher, c.Tracer, c.Logger.Logger)
	lambda.Start(h.Connect)
}

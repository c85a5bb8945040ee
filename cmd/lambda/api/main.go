// Decision API Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/handlers"
	"loan-decision-explainer/internal/metrics"
	"loan-decision-explainer/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	deps, err := handlers.Bootstrap(context.Background(), cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	defer deps.Close()

	metrics.Init()

	api := handlers.NewAPI(deps.Pipeline, deps.APIOptions())
	handler := handlers.NewAPIGatewayHandler(api.Routes())

	// Start Lambda
	lambda.Start(handler.Handle)
}

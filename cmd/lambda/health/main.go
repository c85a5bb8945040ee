// Health Check Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/handlers"
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

	handler := handlers.NewHealthHandler(deps.HealthChecker(), deps.Pipeline.Info, cfg.Stage)

	// Start Lambda
	lambda.Start(handler.Handle)
}

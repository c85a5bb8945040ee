// CSV Processor Lambda entry point, triggered by uploads to the batch bucket
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

	if deps.Objects == nil {
		panic("S3_BUCKET must be set for the CSV processor")
	}

	metrics.Init()

	handler := handlers.NewCSVProcessorHandler(deps.Pipeline, deps.Objects, deps.CSVProcessorOptions())

	// Start Lambda
	lambda.Start(handler.Handle)
}

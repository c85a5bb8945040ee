// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"loan-decision-explainer/internal/services/pipeline"
)

// HealthHandler answers the standalone Lambda health check.
type HealthHandler struct {
	db    HealthChecker
	info  pipeline.ModelInfo
	stage string
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db HealthChecker, info pipeline.ModelInfo, stage string) *HealthHandler {
	return &HealthHandler{db: db, info: info, stage: stage}
}

// LambdaHealthResponse is the response structure for Lambda health checks.
type LambdaHealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Service      string `json:"service"`
	Version      string `json:"version"`
	Stage        string `json:"stage"`
	Model        string `json:"model"`
	ModelVersion string `json:"model_version"`
	Database     string `json:"database,omitempty"`
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	response := LambdaHealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      "loan-decision-explainer",
		Version:      getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:        h.stage,
		Model:        h.info.Name,
		ModelVersion: h.info.Version,
		Database:     "not configured",
	}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			response.Database = "disconnected"
			response.Status = "degraded"
		} else {
			response.Database = "connected"
		}
	}

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	body, _ := json.Marshal(response)

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    corsHeaders("application/json"),
		Body:       string(body),
	}, nil
}

// getEnvOrDefault returns environment variable or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/handlers"
	"loan-decision-explainer/internal/metrics"
	"loan-decision-explainer/internal/services/pipeline"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	p, err := pipeline.Load(context.Background(), &config.Config{BatchConcurrency: 1}, nil)
	require.NoError(t, err)
	metrics.Init()
	return newHandler(handlers.NewAPI(p, handlers.APIOptions{}), []string{"https://app.example.com"})
}

func TestNewHandler_Routes(t *testing.T) {
	h := testHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loan_decision_request_duration_seconds")
}

func TestNewHandler_CORS(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, handlers.APIPrefix+"/models", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, handlers.APIPrefix+"/models", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

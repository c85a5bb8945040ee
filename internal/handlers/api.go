// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"loan-decision-explainer/internal/metrics"
	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/pipeline"
	"loan-decision-explainer/internal/utils"
)

// APIPrefix is the path prefix of every decision endpoint.
const APIPrefix = "/api/v1"

// maxUploadSize bounds multipart CSV uploads.
const maxUploadSize = 10 << 20

// AssessmentRecorder persists the audit record of a served decision.
type AssessmentRecorder interface {
	Insert(ctx context.Context, a *models.Assessment) error
}

// HealthChecker reports database connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// APIOptions holds the optional collaborators of the API. Nil fields disable
// the feature that needs them.
type APIOptions struct {
	Recorder AssessmentRecorder
	Database HealthChecker
	Uploads  UploadURLSigner
}

// API serves the decision endpoints.
type API struct {
	pipeline *pipeline.Pipeline
	opts     APIOptions
}

// NewAPI creates the API over a loaded pipeline.
func NewAPI(p *pipeline.Pipeline, opts APIOptions) *API {
	return &API{pipeline: p, opts: opts}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// BatchPredictionRequest is the body of /predict/batch.
type BatchPredictionRequest struct {
	Data []models.LoanApplication `json:"data"`
}

// BatchPredictionResponse is the result of /predict/batch.
type BatchPredictionResponse struct {
	Predictions []models.Prediction `json:"predictions"`
}

// HealthResponse is the result of /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
}

// ModelsResponse is the result of /models.
type ModelsResponse struct {
	AvailableModels []string `json:"available_models"`
	DefaultModel    string   `json:"default_model"`
	ModelVersion    string   `json:"model_version"`
	FeatureCount    int      `json:"feature_count"`
	Features        []string `json:"features"`
}

// Routes registers every endpoint on a new mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST "+APIPrefix+"/predict", a.instrument("predict", a.predictHandler))
	mux.Handle("POST "+APIPrefix+"/predict/batch", a.instrument("predict_batch", a.predictBatchHandler))
	mux.Handle("POST "+APIPrefix+"/predict/csv", a.instrument("predict_csv", a.predictCSVHandler))
	mux.Handle("POST "+APIPrefix+"/explain", a.instrument("explain", a.explainHandler))
	mux.Handle("POST "+APIPrefix+"/recommend", a.instrument("recommend", a.recommendHandler))
	mux.Handle("POST "+APIPrefix+"/batch/upload-url", a.instrument("upload_url", a.uploadURLHandler))
	mux.Handle("GET "+APIPrefix+"/template", a.instrument("template", a.templateHandler))
	mux.Handle("GET "+APIPrefix+"/template/json", a.instrument("template_json", a.templateJSONHandler))
	mux.Handle("GET "+APIPrefix+"/health", a.instrument("health", a.healthHandler))
	mux.Handle("GET "+APIPrefix+"/models", a.instrument("models", a.modelsHandler))

	// Unversioned health check for load balancers
	mux.Handle("GET /health", a.instrument("health", a.healthHandler))

	return mux
}

type requestIDKey struct{}

// requestID returns the id assigned to the request by instrument.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// instrument assigns a request id, times the handler and logs the request.
func (a *API) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)

		utils.Logger.Info("Request received",
			utils.String("request_id", id),
			utils.String("endpoint", endpoint),
			utils.String("method", r.Method),
		)

		h(w, r.WithContext(ctx))

		metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

func (a *API) predictHandler(w http.ResponseWriter, r *http.Request) {
	app, ok := decodeApplication(w, r, "predict")
	if !ok {
		return
	}

	prediction, err := a.pipeline.Predictor.PredictApplication(r.Context(), app)
	if err != nil {
		writeError(w, r, "predict", err)
		return
	}

	a.record(r.Context(), models.NewAssessment(requestID(r.Context()), "predict", prediction))
	metrics.DecisionsTotal.WithLabelValues(prediction.Label).Inc()
	logResponse(r.Context(), "predict", prediction.Label)

	writeJSON(w, http.StatusOK, prediction)
}

func (a *API) predictBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchPredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "predict_batch", badRequest("invalid request body: %v", err))
		return
	}

	// The whole batch is rejected when any application is invalid.
	for i, app := range req.Data {
		if _, err := app.ToFeatureVector(); err != nil {
			writeError(w, r, "predict_batch", fmt.Errorf("application %d: %w", i, err))
			return
		}
	}

	result, err := a.pipeline.Predictor.PredictBatch(r.Context(), req.Data)
	if err != nil {
		writeError(w, r, "predict_batch", err)
		return
	}
	metrics.ObserveBatch(result.Succeeded, result.Failed)

	resp := BatchPredictionResponse{Predictions: make([]models.Prediction, 0, len(result.Rows))}
	for _, row := range result.Rows {
		if row.Err != nil {
			writeError(w, r, "predict_batch", fmt.Errorf("application %d: %w", row.Index, row.Err))
			return
		}
		metrics.DecisionsTotal.WithLabelValues(row.Prediction.Label).Inc()
		resp.Predictions = append(resp.Predictions, *row.Prediction)
	}

	logResponse(r.Context(), "predict_batch", fmt.Sprintf("%d predictions", len(resp.Predictions)))
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) predictCSVHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, r, "predict_csv", badRequest("failed to parse form: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "predict_csv", badRequest("no file provided"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, "predict_csv", badRequest("failed to read file: %v", err))
		return
	}

	out, _, err := PredictCSV(r.Context(), a.pipeline, string(content))
	if err != nil {
		writeError(w, r, "predict_csv", badRequest("%v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=predictions.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (a *API) explainHandler(w http.ResponseWriter, r *http.Request) {
	app, ok := decodeApplication(w, r, "explain")
	if !ok {
		return
	}

	v, err := app.ToFeatureVector()
	if err != nil {
		writeError(w, r, "explain", err)
		return
	}

	explanation, err := a.pipeline.Explainer.Explain(r.Context(), v)
	if err != nil {
		writeError(w, r, "explain", err)
		return
	}

	a.record(r.Context(), explanationAssessment(r.Context(), "explain", explanation, 0))
	metrics.DecisionsTotal.WithLabelValues(explanation.Prediction).Inc()
	logResponse(r.Context(), "explain", explanation.Prediction)

	writeJSON(w, http.StatusOK, explanation)
}

func (a *API) recommendHandler(w http.ResponseWriter, r *http.Request) {
	app, ok := decodeApplication(w, r, "recommend")
	if !ok {
		return
	}

	v, err := app.ToFeatureVector()
	if err != nil {
		writeError(w, r, "recommend", err)
		return
	}

	explanation, err := a.pipeline.Explainer.Explain(r.Context(), v)
	if err != nil {
		writeError(w, r, "recommend", err)
		return
	}
	set := a.pipeline.Recommender.FromExplanation(v, explanation)

	count := 0
	if !explanation.Approved() {
		count = len(set.Recommendations)
		metrics.RecommendationsTotal.Add(float64(count))
	}
	a.record(r.Context(), explanationAssessment(r.Context(), "recommend", explanation, count))
	metrics.DecisionsTotal.WithLabelValues(explanation.Prediction).Inc()
	logResponse(r.Context(), "recommend", fmt.Sprintf("%s, %d recommendations", set.CurrentPrediction, count))

	writeJSON(w, http.StatusOK, set)
}

func (a *API) templateHandler(w http.ResponseWriter, r *http.Request) {
	data, err := utils.TemplateCSV()
	if err != nil {
		writeError(w, r, "template", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+utils.TemplateFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) templateJSONHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, utils.NewTemplate())
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Message:  "Loan decision API is running",
		Database: "not configured",
	}

	if a.opts.Database != nil {
		if err := a.opts.Database.HealthCheck(r.Context()); err != nil {
			resp.Database = "disconnected"
			resp.Status = "degraded"
		} else {
			resp.Database = "connected"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) modelsHandler(w http.ResponseWriter, _ *http.Request) {
	features := models.FeatureNames()
	writeJSON(w, http.StatusOK, ModelsResponse{
		AvailableModels: []string{a.pipeline.Info.Name},
		DefaultModel:    a.pipeline.Info.Name,
		ModelVersion:    a.pipeline.Info.Version,
		FeatureCount:    len(features),
		Features:        features,
	})
}

// record writes an audit record when a recorder is configured. Failures are
// logged and never fail the request.
func (a *API) record(ctx context.Context, assessment *models.Assessment) {
	if a.opts.Recorder == nil {
		return
	}
	if err := a.opts.Recorder.Insert(ctx, assessment); err != nil {
		utils.Logger.Warn("Failed to record assessment",
			utils.String("request_id", assessment.RequestID),
			utils.Error(err),
		)
	}
}

func explanationAssessment(ctx context.Context, endpoint string, e *models.Explanation, recommendations int) *models.Assessment {
	a := models.NewAssessment(requestID(ctx), endpoint, &models.Prediction{
		Label:       e.Prediction,
		Probability: e.Probability,
		Confidence:  e.Confidence,
	})
	a.RecommendationCount = recommendations
	return a
}

func decodeApplication(w http.ResponseWriter, r *http.Request, endpoint string) (models.LoanApplication, bool) {
	var app models.LoanApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeError(w, r, endpoint, badRequest("invalid request body: %v", err))
		return app, false
	}
	return app, true
}

// requestError is a client error raised outside the decision pipeline.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, models.ErrInvalidApplication),
		errors.Is(err, models.ErrMissingFeature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status := StatusFor(err)
	metrics.RequestErrors.WithLabelValues(endpoint, http.StatusText(status)).Inc()

	utils.Logger.Error("Request failed",
		utils.String("request_id", requestID(r.Context())),
		utils.String("endpoint", endpoint),
		utils.Int("status", status),
		utils.Error(err),
	)

	writeJSON(w, status, ErrorResponse{Detail: err.Error()})
}

func logResponse(ctx context.Context, endpoint, summary string) {
	utils.Logger.Info("Response sent",
		utils.String("request_id", requestID(ctx)),
		utils.String("endpoint", endpoint),
		utils.String("result", summary),
	)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		http.Error(w, `{"detail":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// csvFilename reports whether name looks like a CSV file.
func csvFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

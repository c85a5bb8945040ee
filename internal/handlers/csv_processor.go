// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"loan-decision-explainer/internal/metrics"
	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/pipeline"
	"loan-decision-explainer/internal/services/ses"
	"loan-decision-explainer/internal/utils"
)

// Object key prefixes of the batch bucket.
const (
	uploadPrefix    = "uploads/"
	resultsPrefix   = "results/"
	processedPrefix = "processed/"
)

// ObjectStore is the subset of the S3 service the CSV processor needs.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	MoveObject(ctx context.Context, bucket, sourceKey, destKey string) error
}

// Notifier sends the batch summary email.
type Notifier interface {
	SendBatchSummary(ctx context.Context, params ses.BatchSummaryParams) (*ses.SendEmailResult, error)
}

// BatchRecorder persists the audit records of a batch.
type BatchRecorder interface {
	BulkInsert(ctx context.Context, assessments []*models.Assessment) (int, error)
}

// CSVProcessorOptions holds the optional collaborators of the CSV processor.
type CSVProcessorOptions struct {
	Recorder    BatchRecorder
	Notifier    Notifier
	NotifyEmail string
}

// CSVProcessorHandler handles S3 events for uploaded application CSVs.
type CSVProcessorHandler struct {
	pipeline *pipeline.Pipeline
	store    ObjectStore
	opts     CSVProcessorOptions
}

// NewCSVProcessorHandler creates a new CSV processor handler.
func NewCSVProcessorHandler(p *pipeline.Pipeline, store ObjectStore, opts CSVProcessorOptions) *CSVProcessorHandler {
	return &CSVProcessorHandler{pipeline: p, store: store, opts: opts}
}

// CSVProcessResult is the result of processing a CSV file.
type CSVProcessResult struct {
	Message   string `json:"message"`
	BatchID   string `json:"batch_id,omitempty"`
	ResultKey string `json:"result_key,omitempty"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Approved  int    `json:"approved"`
	Rejected  int    `json:"rejected"`
	Recorded  int    `json:"recorded"`
}

// Handle processes S3 events for uploaded CSV files.
func (h *CSVProcessorHandler) Handle(ctx context.Context, s3Event events.S3Event) (CSVProcessResult, error) {
	if len(s3Event.Records) == 0 {
		return CSVProcessResult{Message: "No records to process"}, nil
	}

	record := s3Event.Records[0]
	bucket := record.S3.Bucket.Name
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return CSVProcessResult{}, fmt.Errorf("failed to decode S3 key: %w", err)
	}

	// Results and archived uploads land in the same bucket.
	if strings.HasPrefix(key, resultsPrefix) || strings.HasPrefix(key, processedPrefix) {
		utils.Logger.Info("Skipping generated object", utils.String("key", key))
		return CSVProcessResult{Message: "Skipped generated object"}, nil
	}

	utils.Logger.Info("Processing CSV file",
		utils.String("bucket", bucket),
		utils.String("key", key))

	content, err := h.store.GetObject(ctx, bucket, key)
	if err != nil {
		utils.Logger.Error("Failed to download CSV", utils.Error(err))
		return CSVProcessResult{}, fmt.Errorf("failed to download CSV: %w", err)
	}
	if len(content) == 0 {
		return CSVProcessResult{}, fmt.Errorf("failed to download CSV: %w", utils.ErrEmptyCSV)
	}

	batchID := generateBatchID(key)

	out, batch, err := PredictCSV(ctx, h.pipeline, string(content))
	if err != nil {
		utils.Logger.Error("Failed to predict CSV",
			utils.String("batchID", batchID),
			utils.Error(err))
		return CSVProcessResult{}, fmt.Errorf("failed to predict CSV: %w", err)
	}
	metrics.ObserveBatch(batch.Succeeded, batch.Failed)

	utils.Logger.Info("Predicted CSV",
		utils.String("batchID", batchID),
		utils.Int("total", batch.Total),
		utils.Int("succeeded", batch.Succeeded),
		utils.Int("failed", batch.Failed),
		utils.Duration("processingTime", batch.ProcessingTime))

	resultKey := ResultKey(key)
	if err := h.store.PutObject(ctx, bucket, resultKey, out, "text/csv"); err != nil {
		return CSVProcessResult{}, fmt.Errorf("failed to upload results: %w", err)
	}

	result := CSVProcessResult{
		Message:   "CSV processed successfully",
		BatchID:   batchID,
		ResultKey: resultKey,
		Total:     batch.Total,
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
		Approved:  batch.Approved,
		Rejected:  batch.Rejected,
	}

	if h.opts.Recorder != nil {
		recorded, err := h.opts.Recorder.BulkInsert(ctx, batchAssessments(batchID, batch))
		if err != nil {
			utils.Logger.Warn("Failed to record batch assessments", utils.Error(err))
		}
		result.Recorded = recorded
	}

	if err := h.store.MoveObject(ctx, bucket, key, processedPrefix+key); err != nil {
		utils.Logger.Warn("Failed to archive file", utils.Error(err))
	}

	if h.opts.Notifier != nil && h.opts.NotifyEmail != "" {
		_, err := h.opts.Notifier.SendBatchSummary(ctx, ses.BatchSummaryParams{
			To:             h.opts.NotifyEmail,
			BatchID:        batchID,
			SourceKey:      key,
			ResultKey:      resultKey,
			Total:          batch.Total,
			Succeeded:      batch.Succeeded,
			Failed:         batch.Failed,
			Approved:       batch.Approved,
			Rejected:       batch.Rejected,
			ProcessingTime: batch.ProcessingTime,
		})
		if err != nil {
			utils.Logger.Warn("Failed to send batch summary", utils.Error(err))
		}
	}

	return result, nil
}

// ResultKey returns the key the predictions for an uploaded CSV are written to.
func ResultKey(key string) string {
	base := strings.TrimSuffix(path.Base(key), path.Ext(key))
	return resultsPrefix + base + "_predictions.csv"
}

func batchAssessments(batchID string, batch *CSVBatch) []*models.Assessment {
	assessments := make([]*models.Assessment, 0, batch.Succeeded)
	for _, rec := range batch.Records {
		if rec.Err != nil || rec.Prediction == nil {
			continue
		}
		a := models.NewAssessment(fmt.Sprintf("%s:%d", batchID, rec.Line), "batch", rec.Prediction)
		id := batchID
		a.BatchID = &id
		assessments = append(assessments, a)
	}
	return assessments
}

// generateBatchID generates a unique batch ID for this upload.
func generateBatchID(key string) string {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	hash := sha256.Sum256([]byte(key + timestamp))
	return hex.EncodeToString(hash[:])[:16]
}

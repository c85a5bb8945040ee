package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/ses"
	"loan-decision-explainer/internal/utils"
)

type fakeStore struct {
	objects map[string][]byte
	moved   map[string]string
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, moved: map[string]string{}}
}

func (f *fakeStore) GetObject(_ context.Context, _, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (f *fakeStore) PutObject(_ context.Context, _, key string, data []byte, _ string) error {
	f.objects[key] = data
	return nil
}

func (f *fakeStore) MoveObject(_ context.Context, _, sourceKey, destKey string) error {
	f.objects[destKey] = f.objects[sourceKey]
	delete(f.objects, sourceKey)
	f.moved[sourceKey] = destKey
	return nil
}

type fakeBatchRecorder struct {
	assessments []*models.Assessment
}

func (f *fakeBatchRecorder) BulkInsert(_ context.Context, assessments []*models.Assessment) (int, error) {
	f.assessments = append(f.assessments, assessments...)
	return len(assessments), nil
}

type fakeNotifier struct {
	sent []ses.BatchSummaryParams
}

func (f *fakeNotifier) SendBatchSummary(_ context.Context, params ses.BatchSummaryParams) (*ses.SendEmailResult, error) {
	f.sent = append(f.sent, params)
	return &ses.SendEmailResult{MessageID: "msg-1"}, nil
}

func s3Event(key string) events.S3Event {
	var record events.S3EventRecord
	record.S3.Bucket.Name = "loan-batches"
	record.S3.Object.Key = key
	return events.S3Event{Records: []events.S3EventRecord{record}}
}

func batchCSV(t *testing.T) []byte {
	t.Helper()
	content, err := utils.TemplateCSV()
	require.NoError(t, err)
	rejected := "2,Graduate,No,8000000,30000000,15,420,5000000,3000000,2000000,1000000\n"
	invalid := "2,PhD,No,8000000,25000000,15,750,5000000,3000000,2000000,1000000\n"
	return append(content, []byte(rejected+invalid)...)
}

func TestCSVProcessor_Handle(t *testing.T) {
	store := newFakeStore()
	store.objects["uploads/2024/03/09/abc_loans.csv"] = batchCSV(t)
	recorder := &fakeBatchRecorder{}
	notifier := &fakeNotifier{}

	h := NewCSVProcessorHandler(testPipeline(t), store, CSVProcessorOptions{
		Recorder:    recorder,
		Notifier:    notifier,
		NotifyEmail: "ops@example.com",
	})

	result, err := h.Handle(context.Background(), s3Event("uploads/2024/03/09/abc_loans.csv"))
	require.NoError(t, err)

	assert.Equal(t, "CSV processed successfully", result.Message)
	assert.Len(t, result.BatchID, 16)
	assert.Equal(t, "results/abc_loans_predictions.csv", result.ResultKey)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 2, result.Recorded)

	rows, err := csv.NewReader(strings.NewReader(string(store.objects[result.ResultKey]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, models.LabelApproved, rows[1][1])
	assert.Equal(t, models.LabelRejected, rows[2][1])
	assert.Equal(t, "Error", rows[3][1])

	assert.Equal(t, "processed/uploads/2024/03/09/abc_loans.csv", store.moved["uploads/2024/03/09/abc_loans.csv"])

	require.Len(t, recorder.assessments, 2)
	for _, a := range recorder.assessments {
		require.NotNil(t, a.BatchID)
		assert.Equal(t, result.BatchID, *a.BatchID)
		assert.Equal(t, "batch", a.Endpoint)
	}

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "ops@example.com", notifier.sent[0].To)
	assert.Equal(t, result.ResultKey, notifier.sent[0].ResultKey)
	assert.Equal(t, 1, notifier.sent[0].Failed)
}

func TestCSVProcessor_UnescapesKey(t *testing.T) {
	store := newFakeStore()
	store.objects["uploads/my loans.csv"] = batchCSV(t)

	h := NewCSVProcessorHandler(testPipeline(t), store, CSVProcessorOptions{})

	result, err := h.Handle(context.Background(), s3Event("uploads/my+loans.csv"))
	require.NoError(t, err)
	assert.Equal(t, "results/my loans_predictions.csv", result.ResultKey)
	assert.Zero(t, result.Recorded)
}

func TestCSVProcessor_SkipsGeneratedObjects(t *testing.T) {
	store := newFakeStore()
	h := NewCSVProcessorHandler(testPipeline(t), store, CSVProcessorOptions{})

	for _, key := range []string{"results/a_predictions.csv", "processed/uploads/a.csv"} {
		result, err := h.Handle(context.Background(), s3Event(key))
		require.NoError(t, err)
		assert.Equal(t, "Skipped generated object", result.Message)
	}
	assert.Empty(t, store.objects)
}

func TestCSVProcessor_NoRecords(t *testing.T) {
	h := NewCSVProcessorHandler(testPipeline(t), newFakeStore(), CSVProcessorOptions{})

	result, err := h.Handle(context.Background(), events.S3Event{})
	require.NoError(t, err)
	assert.Equal(t, "No records to process", result.Message)
}

func TestCSVProcessor_Failures(t *testing.T) {
	t.Run("download", func(t *testing.T) {
		store := newFakeStore()
		store.getErr = errors.New("access denied")
		h := NewCSVProcessorHandler(testPipeline(t), store, CSVProcessorOptions{})

		_, err := h.Handle(context.Background(), s3Event("uploads/a.csv"))
		assert.ErrorContains(t, err, "failed to download CSV")
	})

	t.Run("empty", func(t *testing.T) {
		store := newFakeStore()
		store.objects["uploads/a.csv"] = []byte{}
		h := NewCSVProcessorHandler(testPipeline(t), store, CSVProcessorOptions{})

		_, err := h.Handle(context.Background(), s3Event("uploads/a.csv"))
		assert.ErrorIs(t, err, utils.ErrEmptyCSV)
	})

	t.Run("missing columns", func(t *testing.T) {
		store := newFakeStore()
		store.objects["uploads/a.csv"] = []byte("cibil_score\n700\n")
		h := NewCSVProcessorHandler(testPipeline(t), store, CSVProcessorOptions{})

		_, err := h.Handle(context.Background(), s3Event("uploads/a.csv"))
		assert.ErrorContains(t, err, "failed to predict CSV")
		assert.Contains(t, store.objects, "uploads/a.csv", "a failed upload stays in place")
	})
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "results/abc_loans_predictions.csv", ResultKey("uploads/2024/03/09/abc_loans.csv"))
	assert.Equal(t, "results/plain_predictions.csv", ResultKey("plain"))
}

func TestGenerateBatchID(t *testing.T) {
	id := generateBatchID("uploads/a.csv")
	assert.Len(t, id, 16)
}

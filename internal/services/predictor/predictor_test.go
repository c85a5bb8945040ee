package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/model"
)

type fakeClassifier struct {
	label string
	probs []float64
	err   error
}

func (f *fakeClassifier) Predict(context.Context, models.FeatureVector) (string, []float64, error) {
	return f.label, f.probs, f.err
}

func sampleVector(t *testing.T) models.FeatureVector {
	t.Helper()
	v, err := models.SampleApplication().ToFeatureVector()
	require.NoError(t, err)
	return v
}

func TestPredict_ProbabilityOfPredictedClass(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		probs      []float64
		wantLabel  string
		wantProb   float64
		confidence models.Confidence
	}{
		{"approved high", "Approved", []float64{0.91, 0.09}, models.LabelApproved, 0.91, models.ConfidenceHigh},
		{"rejected medium", "Rejected", []float64{0.35, 0.65}, models.LabelRejected, 0.65, models.ConfidenceMedium},
		{"padded label", " Rejected ", []float64{0.45, 0.55}, models.LabelRejected, 0.55, models.ConfidenceLow},
		{"boundary 0.8", "Approved", []float64{0.8, 0.2}, models.LabelApproved, 0.8, models.ConfidenceHigh},
		{"boundary 0.6", "Rejected", []float64{0.4, 0.6}, models.LabelRejected, 0.6, models.ConfidenceMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictor(&fakeClassifier{label: tt.label, probs: tt.probs}, 1)

			got, err := p.Predict(context.Background(), sampleVector(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantProb, got.Probability, 1e-12)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.probs, got.ClassProbabilities)
		})
	}
}

func TestPredict_OracleFailures(t *testing.T) {
	cause := errors.New("model unavailable")
	tests := []struct {
		name       string
		classifier *fakeClassifier
	}{
		{"oracle error", &fakeClassifier{err: cause}},
		{"unknown label", &fakeClassifier{label: "Maybe", probs: []float64{0.5, 0.5}}},
		{"missing probability", &fakeClassifier{label: "Rejected", probs: []float64{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPredictor(tt.classifier, 1).Predict(context.Background(), sampleVector(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrOracle)

			var oracleErr *models.OracleError
			require.ErrorAs(t, err, &oracleErr)
			assert.Equal(t, "classifier", oracleErr.Oracle)
		})
	}

	_, err := NewPredictor(&fakeClassifier{err: cause}, 1).Predict(context.Background(), sampleVector(t))
	assert.ErrorIs(t, err, cause)
}

func TestPredictApplication_Invalid(t *testing.T) {
	app := models.SampleApplication()
	app.CibilScore = 100

	_, err := NewPredictor(&fakeClassifier{}, 1).PredictApplication(context.Background(), app)
	assert.ErrorIs(t, err, models.ErrInvalidApplication)
}

func TestPredictBatch_PerRowOutcome(t *testing.T) {
	artifact, err := model.DefaultArtifact()
	require.NoError(t, err)
	linear, err := model.NewLinearModel(artifact)
	require.NoError(t, err)

	good := models.SampleApplication()
	poor := models.SampleApplication()
	poor.CibilScore = 420
	poor.LoanAmount = 30000000
	invalid := models.SampleApplication()
	invalid.Education = "PhD"

	result, err := NewPredictor(linear, 4).PredictBatch(context.Background(),
		[]models.LoanApplication{good, poor, invalid, good})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Approved)
	assert.Equal(t, 1, result.Rejected)

	require.Len(t, result.Rows, 4)
	for i, row := range result.Rows {
		assert.Equal(t, i, row.Index)
	}
	assert.Equal(t, models.LabelRejected, result.Rows[1].Prediction.Label)
	assert.ErrorIs(t, result.Rows[2].Err, models.ErrInvalidApplication)
	assert.Nil(t, result.Rows[2].Prediction)
}

func TestPredictBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPredictor(&fakeClassifier{label: "Approved", probs: []float64{1, 0}}, 2)
	_, err := p.PredictBatch(ctx, []models.LoanApplication{models.SampleApplication()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPredictor_MinimumConcurrency(t *testing.T) {
	p := NewPredictor(&fakeClassifier{}, 0)
	assert.Equal(t, 1, p.concurrency)
}

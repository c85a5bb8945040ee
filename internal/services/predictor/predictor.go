// Package predictor turns classifier oracle output into Predictions, for one
// application or a batch.
package predictor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/model"
	"loan-decision-explainer/internal/utils"
)

// Predictor wraps a classifier oracle.
type Predictor struct {
	classifier  model.ClassifierOracle
	concurrency int
}

// BatchRow is the outcome for one application of a batch. Exactly one of
// Prediction and Err is set.
type BatchRow struct {
	Index       int
	Application models.LoanApplication
	Prediction  *models.Prediction
	Err         error
}

// BatchResult contains the complete result of predicting a batch.
type BatchResult struct {
	Total          int
	Succeeded      int
	Failed         int
	Approved       int
	Rejected       int
	ProcessingTime time.Duration
	Rows           []BatchRow
}

// NewPredictor creates a predictor. concurrency bounds batch fan-out and is
// raised to 1 when lower.
func NewPredictor(classifier model.ClassifierOracle, concurrency int) *Predictor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Predictor{classifier: classifier, concurrency: concurrency}
}

// Predict asks the classifier for a decision on v. The probability reported
// is the one of the predicted class.
func (p *Predictor) Predict(ctx context.Context, v models.FeatureVector) (*models.Prediction, error) {
	label, probs, err := p.classifier.Predict(ctx, v)
	if err != nil {
		return nil, &models.OracleError{Oracle: "classifier", Err: err}
	}

	idx, ok := models.ClassIndex(label)
	if !ok {
		return nil, &models.OracleError{Oracle: "classifier", Err: fmt.Errorf("unknown label %q", label)}
	}
	if idx >= len(probs) {
		return nil, &models.OracleError{
			Oracle: "classifier",
			Err:    fmt.Errorf("label %q has no probability (got %d classes)", label, len(probs)),
		}
	}

	probability := probs[idx]
	return &models.Prediction{
		Label:              models.ClassLabel(idx),
		Probability:        probability,
		Confidence:         models.ConfidenceFor(probability),
		ClassProbabilities: append([]float64(nil), probs...),
	}, nil
}

// PredictApplication validates app and predicts it.
func (p *Predictor) PredictApplication(ctx context.Context, app models.LoanApplication) (*models.Prediction, error) {
	v, err := app.ToFeatureVector()
	if err != nil {
		return nil, err
	}
	return p.Predict(ctx, v)
}

// PredictBatch predicts every application, at most concurrency at a time.
// A failing row is recorded on that row; the batch itself only fails when ctx
// is cancelled.
func (p *Predictor) PredictBatch(ctx context.Context, apps []models.LoanApplication) (*BatchResult, error) {
	startTime := time.Now()
	result := &BatchResult{
		Total: len(apps),
		Rows:  make([]BatchRow, len(apps)),
	}

	utils.Logger.Info("Starting batch prediction",
		utils.Int("rows", len(apps)),
		utils.Int("concurrency", p.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, app := range apps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pred, err := p.PredictApplication(gctx, app)
			result.Rows[i] = BatchRow{Index: i, Application: app, Prediction: pred, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch prediction cancelled: %w", err)
	}

	for _, row := range result.Rows {
		switch {
		case row.Err != nil:
			result.Failed++
		case row.Prediction.Approved():
			result.Succeeded++
			result.Approved++
		default:
			result.Succeeded++
			result.Rejected++
		}
	}
	result.ProcessingTime = time.Since(startTime)

	utils.Logger.Info("Batch prediction complete",
		utils.Int("succeeded", result.Succeeded),
		utils.Int("failed", result.Failed),
		utils.Int("approved", result.Approved),
		utils.Duration("processing_time", result.ProcessingTime),
	)

	return result, nil
}

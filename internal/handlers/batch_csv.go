// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"bytes"
	"context"
	"time"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/pipeline"
	"loan-decision-explainer/internal/utils"
)

// CSVBatch summarizes the predictions made for one applications CSV.
type CSVBatch struct {
	Records        []utils.PredictionRecord
	Total          int
	Succeeded      int
	Failed         int
	Approved       int
	Rejected       int
	ProcessingTime time.Duration
}

// PredictCSV parses an applications CSV, predicts every readable row and
// renders the predictions CSV. Unreadable or invalid rows are reported inline.
func PredictCSV(ctx context.Context, p *pipeline.Pipeline, content string) ([]byte, *CSVBatch, error) {
	rows, err := utils.NewCSVParser().ParseApplications(content)
	if err != nil {
		return nil, nil, err
	}

	apps := make([]models.LoanApplication, 0, len(rows))
	positions := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.Err == nil {
			apps = append(apps, row.Application)
			positions = append(positions, i)
		}
	}

	result, err := p.Predictor.PredictBatch(ctx, apps)
	if err != nil {
		return nil, nil, err
	}

	batch := &CSVBatch{
		Records:        make([]utils.PredictionRecord, len(rows)),
		Total:          len(rows),
		Approved:       result.Approved,
		Rejected:       result.Rejected,
		Succeeded:      result.Succeeded,
		ProcessingTime: result.ProcessingTime,
	}
	for i, row := range rows {
		batch.Records[i] = utils.PredictionRecord{Line: row.Line, Err: row.Err}
	}
	for j, predicted := range result.Rows {
		rec := &batch.Records[positions[j]]
		rec.Prediction = predicted.Prediction
		rec.Err = predicted.Err
	}
	batch.Failed = batch.Total - batch.Succeeded

	var buf bytes.Buffer
	if err := utils.WritePredictionsCSV(&buf, batch.Records); err != nil {
		return nil, nil, err
	}

	return buf.Bytes(), batch, nil
}

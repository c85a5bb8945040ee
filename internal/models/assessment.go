// Package models defines the data structures for the loan decision explainer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is the audit record of one decision served by the API or a
// batch run. Attribution values are never part of it.
type Assessment struct {
	ID                  uuid.UUID  `json:"id"`
	RequestID           string     `json:"request_id"`
	Endpoint            string     `json:"endpoint"`
	Prediction          string     `json:"prediction"`
	Probability         float64    `json:"probability"`
	Confidence          Confidence `json:"confidence"`
	RecommendationCount int        `json:"recommendation_count"`
	BatchID             *string    `json:"batch_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// NewAssessment builds an audit record for a prediction.
func NewAssessment(requestID, endpoint string, p *Prediction) *Assessment {
	return &Assessment{
		ID:          uuid.New(),
		RequestID:   requestID,
		Endpoint:    endpoint,
		Prediction:  p.Label,
		Probability: p.Probability,
		Confidence:  p.Confidence,
		CreatedAt:   time.Now().UTC(),
	}
}

// AssessmentSummary aggregates the assessments of one batch.
type AssessmentSummary struct {
	BatchID        string  `json:"batch_id"`
	Total          int     `json:"total"`
	Approved       int     `json:"approved"`
	Rejected       int     `json:"rejected"`
	AvgProbability float64 `json:"avg_probability"`
}

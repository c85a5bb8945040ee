// Package database provides the Postgres audit log of served loan decisions.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loan-decision-explainer/internal/models"
)

// AssessmentsSchema creates the assessments table. It is applied by the
// init_db script through DB.Migrate.
const AssessmentsSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	id UUID PRIMARY KEY,
	request_id VARCHAR(64) NOT NULL,
	endpoint VARCHAR(64) NOT NULL,
	prediction VARCHAR(16) NOT NULL,
	probability DOUBLE PRECISION NOT NULL,
	confidence VARCHAR(16) NOT NULL,
	recommendation_count INTEGER NOT NULL DEFAULT 0,
	batch_id VARCHAR(64),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_assessments_batch_id ON assessments(batch_id);
CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at DESC);
`

const insertAssessment = `
	INSERT INTO assessments (
		id, request_id, endpoint, prediction, probability, confidence,
		recommendation_count, batch_id, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// AssessmentRepository handles assessment database operations.
type AssessmentRepository struct {
	db *DB
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Insert records a single assessment.
func (r *AssessmentRepository) Insert(ctx context.Context, a *models.Assessment) error {
	_, err := r.db.Exec(ctx, insertAssessment, assessmentArgs(a)...)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// BulkInsert records the assessments of a batch in one transaction.
func (r *AssessmentRepository) BulkInsert(ctx context.Context, assessments []*models.Assessment) (int, error) {
	inserted := 0

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		for _, a := range assessments {
			if _, err := tx.Exec(ctx, insertAssessment, assessmentArgs(a)...); err != nil {
				return fmt.Errorf("failed to insert assessment %s: %w", a.ID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// ListRecent retrieves the most recent assessments.
func (r *AssessmentRepository) ListRecent(ctx context.Context, limit int) ([]models.Assessment, error) {
	query := `
		SELECT id, request_id, endpoint, prediction, probability, confidence,
			   recommendation_count, batch_id, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var out []models.Assessment
	for rows.Next() {
		var a models.Assessment
		var confidence string
		err := rows.Scan(
			&a.ID, &a.RequestID, &a.Endpoint, &a.Prediction, &a.Probability, &confidence,
			&a.RecommendationCount, &a.BatchID, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		a.Confidence = models.Confidence(confidence)
		out = append(out, a)
	}

	return out, rows.Err()
}

// GetBatchSummary returns summary statistics for a batch.
func (r *AssessmentRepository) GetBatchSummary(ctx context.Context, batchID string) (*models.AssessmentSummary, error) {
	summary := &models.AssessmentSummary{BatchID: batchID}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN prediction = 'Approved' THEN 1 END),
			COUNT(CASE WHEN prediction = 'Rejected' THEN 1 END),
			COALESCE(AVG(probability), 0)
		FROM assessments
		WHERE batch_id = $1`,
		batchID).Scan(&summary.Total, &summary.Approved, &summary.Rejected, &summary.AvgProbability)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize batch: %w", err)
	}

	return summary, nil
}

func assessmentArgs(a *models.Assessment) []interface{} {
	return []interface{}{
		a.ID,
		a.RequestID,
		a.Endpoint,
		a.Prediction,
		a.Probability,
		string(a.Confidence),
		a.RecommendationCount,
		a.BatchID,
		a.CreatedAt,
	}
}

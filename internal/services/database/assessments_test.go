package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/models"
)

var testDB *DB

func TestMain(m *testing.M) {
	// Skip database tests if no database URL is provided
	if os.Getenv("DATABASE_URL") == "" {
		os.Exit(m.Run())
	}

	var err error
	testDB, err = Open(context.Background(), os.Getenv("DATABASE_URL"), PoolOptions{MaxConns: 4})
	if err != nil {
		panic("Failed to connect to test database: " + err.Error())
	}
	if err := testDB.Migrate(context.Background()); err != nil {
		panic("Failed to apply schema: " + err.Error())
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func requireDB(t *testing.T) *AssessmentRepository {
	t.Helper()
	if testDB == nil {
		t.Skip("DATABASE_URL not set")
	}
	return NewAssessmentRepository(testDB)
}

func TestDatabaseConnection(t *testing.T) {
	requireDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, testDB.HealthCheck(ctx))
}

func TestAssessmentRepository_InsertAndList(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	a := models.NewAssessment("req-"+uuid.NewString(), "explain", &models.Prediction{
		Label:       models.LabelRejected,
		Probability: 0.72,
		Confidence:  models.ConfidenceMedium,
	})
	a.RecommendationCount = 3
	require.NoError(t, repo.Insert(ctx, a))

	recent, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)

	var found *models.Assessment
	for i := range recent {
		if recent[i].ID == a.ID {
			found = &recent[i]
		}
	}
	require.NotNil(t, found, "inserted assessment should be listed")
	assert.Equal(t, a.RequestID, found.RequestID)
	assert.Equal(t, models.ConfidenceMedium, found.Confidence)
	assert.Equal(t, 3, found.RecommendationCount)
	assert.Nil(t, found.BatchID)
}

func TestAssessmentRepository_BatchSummary(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	batchID := uuid.NewString()[:16]
	var batch []*models.Assessment
	for i, p := range []models.Prediction{
		{Label: models.LabelApproved, Probability: 0.9, Confidence: models.ConfidenceHigh},
		{Label: models.LabelApproved, Probability: 0.7, Confidence: models.ConfidenceMedium},
		{Label: models.LabelRejected, Probability: 0.8, Confidence: models.ConfidenceHigh},
	} {
		a := models.NewAssessment(fmt.Sprintf("%s:%d", batchID, i+2), "batch", &p)
		a.BatchID = &batchID
		batch = append(batch, a)
	}

	inserted, err := repo.BulkInsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	summary, err := repo.GetBatchSummary(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Approved)
	assert.Equal(t, 1, summary.Rejected)
	assert.InDelta(t, 0.8, summary.AvgProbability, 1e-9)
}

func TestAssessmentRepository_BulkInsertIsAtomic(t *testing.T) {
	repo := requireDB(t)
	ctx := context.Background()

	batchID := uuid.NewString()[:16]
	a := models.NewAssessment("dup", "batch", &models.Prediction{Label: models.LabelApproved, Probability: 0.9, Confidence: models.ConfidenceHigh})
	a.BatchID = &batchID

	// The second insert reuses the primary key.
	_, err := repo.BulkInsert(ctx, []*models.Assessment{a, a})
	require.Error(t, err)

	summary, err := repo.GetBatchSummary(ctx, batchID)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

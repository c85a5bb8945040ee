package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	p, err := Load(context.Background(), &config.Config{BatchConcurrency: 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, "logistic_regression", p.Info.Name)
	assert.Equal(t, config.DefaultPolicy(), p.Policy)

	v, err := models.SampleApplication().ToFeatureVector()
	require.NoError(t, err)

	explanation, err := p.Explainer.Explain(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, models.LabelApproved, explanation.Prediction)

	set, err := p.Recommender.Recommend(context.Background(), v)
	require.NoError(t, err)
	require.Len(t, set.Recommendations, 1)
	assert.Equal(t, "loan_approved", set.Recommendations[0].Feature)
}

func TestLoad_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_features: 3\n"), 0o644))

	p, err := Load(context.Background(), &config.Config{PolicyPath: path, BatchConcurrency: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Policy.TopFeatures)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), &config.Config{ModelPath: filepath.Join(t.TempDir(), "missing.json")}, nil)
	assert.ErrorContains(t, err, "failed to load model")

	_, err = Load(context.Background(), &config.Config{PolicyPath: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	assert.ErrorContains(t, err, "failed to read policy file")
}

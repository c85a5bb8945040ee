package explainer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/attribution"
	"loan-decision-explainer/internal/services/predictor"
)

type fakeClassifier struct {
	label string
	probs []float64
	err   error
}

func (f *fakeClassifier) Predict(context.Context, models.FeatureVector) (string, []float64, error) {
	return f.label, f.probs, f.err
}

type fakeAttributor struct {
	raw   attribution.RawAttribution
	err   error
	calls int
}

func (f *fakeAttributor) RawAttribution(context.Context, models.FeatureVector) (attribution.RawAttribution, error) {
	f.calls++
	return f.raw, f.err
}

func newExplainer(c *fakeClassifier, a *fakeAttributor) *Explainer {
	return NewExplainer(predictor.NewPredictor(c, 1), a, config.DefaultPolicy())
}

func sampleVector(t *testing.T) models.FeatureVector {
	t.Helper()
	v, err := models.SampleApplication().ToFeatureVector()
	require.NoError(t, err)
	return v
}

// values in declaration order:
// dependents, education, self_employed, income, loan_amount, loan_term,
// cibil, residential, commercial, luxury, bank
var rejectedValues = []float64{0.01, 0.02, -0.03, -0.15, -0.9, -0.2, -1.4, 0.05, 0.3, -0.08, -0.12}

func TestExplain_RanksAndDescribes(t *testing.T) {
	e := newExplainer(
		&fakeClassifier{label: "Rejected", probs: []float64{0.12, 0.88}},
		&fakeAttributor{raw: attribution.Flat(rejectedValues)},
	)

	got, err := e.Explain(context.Background(), sampleVector(t))
	require.NoError(t, err)

	assert.Equal(t, models.LabelRejected, got.Prediction)
	assert.InDelta(t, 0.88, got.Probability, 1e-12)
	assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	assert.False(t, got.Approved())

	assert.Len(t, got.Attributions, 11)
	for _, name := range models.FeatureNames() {
		assert.Contains(t, got.Attributions, name)
	}

	require.Len(t, got.TopFeatures, 5)
	wantOrder := []string{
		models.FeatureCibilScore,
		models.FeatureLoanAmount,
		models.FeatureCommercialAssetsValue,
		models.FeatureLoanTerm,
		models.FeatureIncomeAnnum,
	}
	for i, rf := range got.TopFeatures {
		assert.Equal(t, i+1, rf.Rank)
		assert.Equal(t, wantOrder[i], rf.Feature)
		assert.InDelta(t, math.Abs(rf.Attribution), rf.Importance, 1e-12)
		if i > 0 {
			assert.GreaterOrEqual(t, got.TopFeatures[i-1].Importance, rf.Importance)
		}
	}
	assert.Equal(t, models.ImpactPositive, got.TopFeatures[2].Impact)
	assert.Equal(t, models.ImpactNegative, got.TopFeatures[0].Impact)
	assert.Equal(t, "750", got.TopFeatures[0].FeatureValue.String())

	assert.Equal(t, map[string]string{
		models.FeatureCibilScore:            "Decreases approval probability by 1.400",
		models.FeatureLoanAmount:            "Decreases approval probability by 0.900",
		models.FeatureCommercialAssetsValue: "Increases approval probability by 0.300",
		models.FeatureLoanTerm:              "Decreases approval probability by 0.200",
		models.FeatureIncomeAnnum:           "Decreases approval probability by 0.150",
		models.FeatureBankAssetValue:        "Decreases approval probability by 0.120",
	}, got.FeatureImpact)
}

func TestExplain_ImpactThresholdIsExclusive(t *testing.T) {
	values := make([]float64, 11)
	values[0] = 0.1
	values[1] = -0.1
	values[2] = 0.1000001

	e := newExplainer(
		&fakeClassifier{label: "Approved", probs: []float64{0.7, 0.3}},
		&fakeAttributor{raw: attribution.Flat(values)},
	)

	got, err := e.Explain(context.Background(), sampleVector(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		models.FeatureSelfEmployed: "Increases approval probability by 0.100",
	}, got.FeatureImpact)
}

func TestExplain_TiesKeepDeclarationOrder(t *testing.T) {
	values := make([]float64, 11)
	for i := range values {
		values[i] = 0.5
	}
	values[6] = -0.5

	e := newExplainer(
		&fakeClassifier{label: "Approved", probs: []float64{0.9, 0.1}},
		&fakeAttributor{raw: attribution.Flat(values)},
	)

	got, err := e.Explain(context.Background(), sampleVector(t))
	require.NoError(t, err)

	names := make([]string, 0, len(got.TopFeatures))
	for _, rf := range got.TopFeatures {
		names = append(names, rf.Feature)
	}
	assert.Equal(t, models.FeatureNames()[:5], names)
}

func TestExplain_ZeroAttributionIsNegative(t *testing.T) {
	e := newExplainer(
		&fakeClassifier{label: "Approved", probs: []float64{0.9, 0.1}},
		&fakeAttributor{raw: attribution.Flat(make([]float64, 11))},
	)

	got, err := e.Explain(context.Background(), sampleVector(t))
	require.NoError(t, err)
	for _, rf := range got.TopFeatures {
		assert.Equal(t, models.ImpactNegative, rf.Impact)
	}
	assert.Empty(t, got.FeatureImpact)
}

func TestExplain_TopFeaturesFromPolicy(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.TopFeatures = 3
	e := NewExplainer(
		predictor.NewPredictor(&fakeClassifier{label: "Rejected", probs: []float64{0.2, 0.8}}, 1),
		&fakeAttributor{raw: attribution.Flat(rejectedValues)},
		policy,
	)

	got, err := e.Explain(context.Background(), sampleVector(t))
	require.NoError(t, err)
	assert.Len(t, got.TopFeatures, 3)
}

func TestExplain_Errors(t *testing.T) {
	cause := errors.New("explainer crashed")

	t.Run("missing feature", func(t *testing.T) {
		attributor := &fakeAttributor{raw: attribution.Flat(rejectedValues)}
		e := newExplainer(&fakeClassifier{label: "Approved", probs: []float64{1, 0}}, attributor)

		v := models.NewFeatureVector(map[string]models.FeatureValue{
			models.FeatureCibilScore: models.NumberValue(700),
		})
		_, err := e.Explain(context.Background(), v)

		var missing *models.MissingFeatureError
		require.ErrorAs(t, err, &missing)
		assert.Len(t, missing.Features, 10)
		assert.ErrorIs(t, err, models.ErrMissingFeature)
		assert.Zero(t, attributor.calls)
	})

	t.Run("classifier failure", func(t *testing.T) {
		e := newExplainer(&fakeClassifier{err: cause}, &fakeAttributor{raw: attribution.Flat(rejectedValues)})
		_, err := e.Explain(context.Background(), sampleVector(t))
		assert.ErrorIs(t, err, models.ErrOracle)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("attribution failure", func(t *testing.T) {
		e := newExplainer(&fakeClassifier{label: "Approved", probs: []float64{1, 0}}, &fakeAttributor{err: cause})
		_, err := e.Explain(context.Background(), sampleVector(t))

		var oracleErr *models.OracleError
		require.ErrorAs(t, err, &oracleErr)
		assert.Equal(t, "attribution", oracleErr.Oracle)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		e := newExplainer(
			&fakeClassifier{label: "Approved", probs: []float64{1, 0}},
			&fakeAttributor{raw: attribution.Flat(rejectedValues[:10])},
		)
		_, err := e.Explain(context.Background(), sampleVector(t))

		var shapeErr *models.ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, 10, shapeErr.Got)
		assert.Equal(t, 11, shapeErr.Want)
	})
}

package attribution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/models"
)

func sequence(n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * scale
	}
	return out
}

func TestNormalize_AllShapesAgree(t *testing.T) {
	order := models.FeatureNames()
	want := sequence(len(order), 0.01)
	negated := sequence(len(order), -0.01)

	tensor := make([][]float64, len(order))
	for i := range tensor {
		tensor[i] = []float64{want[i], negated[i]}
	}

	tests := []struct {
		name string
		raw  RawAttribution
	}{
		{"flat", Flat(want)},
		{"per sample", PerSample([][]float64{want, negated})},
		{"per sample class", PerSampleClass([][][]float64{tensor})},
		{"per class pair flat", PerClassPair([][]float64{want}, [][]float64{negated})},
		{"per class pair nested", PerClassPair([][]float64{want, negated}, [][]float64{negated, want})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, order)
			require.NoError(t, err)
			require.Len(t, got, len(order))
			for i, name := range order {
				assert.InDelta(t, want[i], got[name], 1e-12, name)
			}
		})
	}
}

func TestNormalize_FeatureCountMismatch(t *testing.T) {
	order := models.FeatureNames()

	_, err := Normalize(Flat(sequence(10, 1)), order)
	require.Error(t, err)

	var shapeErr *models.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, 10, shapeErr.Got)
	assert.Equal(t, 11, shapeErr.Want)
	assert.ErrorIs(t, err, models.ErrShape)
}

func TestNormalize_MalformedShapes(t *testing.T) {
	order := models.FeatureNames()

	tests := []struct {
		name string
		raw  RawAttribution
	}{
		{"no samples", PerSample(nil)},
		{"no class samples", PerSampleClass(nil)},
		{"missing class column", PerSampleClass([][][]float64{{{}}})},
		{"single class", RawAttribution{Kind: KindPerClassPair, PerClass: [][][]float64{{sequence(11, 1)}}}},
		{"empty approval class", PerClassPair(nil, [][]float64{sequence(11, 1)})},
		{"unknown kind", RawAttribution{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, order)
			assert.ErrorIs(t, err, models.ErrShape)
		})
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Per_Class_Pair ")
	require.NoError(t, err)
	assert.Equal(t, KindPerClassPair, kind)
	assert.Equal(t, "per_class_pair", kind.String())

	_, err = ParseKind("ragged")
	assert.Error(t, err)
}

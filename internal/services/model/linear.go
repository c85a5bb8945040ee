package model

import (
	"context"
	"fmt"
	"math"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/attribution"
)

// LinearModel is a standardized logistic regression over the 11 features.
// It serves both oracles: the linear term of each feature, measured from the
// training mean, is its exact attribution in log-odds of approval.
//
// A LinearModel is immutable after construction and safe for concurrent use.
type LinearModel struct {
	artifact Artifact
	layout   attribution.Kind
}

// NewLinearModel builds a model from a validated artifact.
func NewLinearModel(a *Artifact) (*LinearModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	layout := attribution.KindPerSampleClass
	if a.AttributionLayout != "" {
		kind, err := attribution.ParseKind(a.AttributionLayout)
		if err != nil {
			return nil, err
		}
		layout = kind
	}

	return &LinearModel{artifact: *a, layout: layout}, nil
}

// Name returns the artifact name.
func (m *LinearModel) Name() string {
	return m.artifact.Name
}

// Version returns the artifact version.
func (m *LinearModel) Version() string {
	return m.artifact.Version
}

// SafeForConcurrentUse reports true: the model is immutable after load.
func (m *LinearModel) SafeForConcurrentUse() bool {
	return true
}

// Predict implements ClassifierOracle.
func (m *LinearModel) Predict(ctx context.Context, v models.FeatureVector) (string, []float64, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	contributions, err := m.contributions(v)
	if err != nil {
		return "", nil, err
	}

	z := m.artifact.Intercept
	for _, c := range contributions {
		z += c
	}
	approve := 1 / (1 + math.Exp(-z))
	probs := []float64{approve, 1 - approve}

	label := m.artifact.Classes[0]
	if probs[1] > probs[0] {
		label = m.artifact.Classes[1]
	}
	return label, probs, nil
}

// RawAttribution implements AttributionOracle, emitting the artifact's
// configured layout.
func (m *LinearModel) RawAttribution(ctx context.Context, v models.FeatureVector) (attribution.RawAttribution, error) {
	if err := ctx.Err(); err != nil {
		return attribution.RawAttribution{}, err
	}

	approve, err := m.contributions(v)
	if err != nil {
		return attribution.RawAttribution{}, err
	}
	reject := make([]float64, len(approve))
	for i, c := range approve {
		reject[i] = -c
	}

	switch m.layout {
	case attribution.KindFlat:
		return attribution.Flat(approve), nil
	case attribution.KindPerSample:
		return attribution.PerSample([][]float64{approve}), nil
	case attribution.KindPerClassPair:
		return attribution.PerClassPair([][]float64{approve}, [][]float64{reject}), nil
	default:
		tensor := make([][]float64, len(approve))
		for i := range approve {
			tensor[i] = []float64{approve[i], reject[i]}
		}
		return attribution.PerSampleClass([][][]float64{tensor}), nil
	}
}

// contributions returns w * (x - mean) / scale for each feature in order.
func (m *LinearModel) contributions(v models.FeatureVector) ([]float64, error) {
	out := make([]float64, len(m.artifact.Features))
	for i, spec := range m.artifact.Features {
		x, err := m.encode(v, spec.Name)
		if err != nil {
			return nil, err
		}
		scale := spec.Scale
		if scale == 0 {
			scale = 1
		}
		out[i] = spec.Weight * (x - spec.Mean) / scale
	}
	return out, nil
}

func (m *LinearModel) encode(v models.FeatureVector, name string) (float64, error) {
	val, ok := v.Value(name)
	if !ok {
		return 0, fmt.Errorf("feature %s not provided", name)
	}
	if !models.IsCategoricalFeature(name) {
		return val.Number, nil
	}
	code, ok := m.artifact.Categories[name][val.Category]
	if !ok {
		return 0, fmt.Errorf("unknown %s category %q", name, val.Category)
	}
	return code, nil
}

// Package explainer ranks per-feature attributions for a classifier decision
// and describes their impact.
package explainer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/attribution"
	"loan-decision-explainer/internal/services/model"
	"loan-decision-explainer/internal/services/predictor"
)

// Explainer produces an Explanation from the classifier and attribution
// oracles. It holds no per-request state.
type Explainer struct {
	predictor    *predictor.Predictor
	attributor   model.AttributionOracle
	policy       config.Policy
	featureOrder []string
}

// NewExplainer creates an explainer over the given oracles.
func NewExplainer(p *predictor.Predictor, attributor model.AttributionOracle, policy config.Policy) *Explainer {
	return &Explainer{
		predictor:    p,
		attributor:   attributor,
		policy:       policy,
		featureOrder: models.FeatureNames(),
	}
}

// Explain predicts v and explains the decision. Errors are returned as
// *models.MissingFeatureError, *models.OracleError or *models.ShapeError.
func (e *Explainer) Explain(ctx context.Context, v models.FeatureVector) (*models.Explanation, error) {
	if err := v.Require(e.featureOrder); err != nil {
		return nil, err
	}

	prediction, err := e.predictor.Predict(ctx, v)
	if err != nil {
		return nil, err
	}

	raw, err := e.attributor.RawAttribution(ctx, v)
	if err != nil {
		return nil, &models.OracleError{Oracle: "attribution", Err: err}
	}
	attributions, err := attribution.Normalize(raw, e.featureOrder)
	if err != nil {
		return nil, err
	}

	return &models.Explanation{
		Prediction:    prediction.Label,
		Probability:   prediction.Probability,
		Confidence:    prediction.Confidence,
		Attributions:  attributions,
		TopFeatures:   e.rank(v, attributions),
		FeatureImpact: e.describe(attributions),
	}, nil
}

// rank orders features by descending |attribution| and keeps the top N.
// Equal magnitudes keep declaration order.
func (e *Explainer) rank(v models.FeatureVector, attributions models.AttributionMap) []models.RankedFeature {
	ranked := make([]models.RankedFeature, 0, len(e.featureOrder))
	for _, name := range e.featureOrder {
		a := attributions[name]
		value, _ := v.Value(name)

		impact := models.ImpactNegative
		if a > 0 {
			impact = models.ImpactPositive
		}
		ranked = append(ranked, models.RankedFeature{
			Feature:      name,
			Attribution:  a,
			FeatureValue: value,
			Impact:       impact,
			Importance:   math.Abs(a),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	if len(ranked) > e.policy.TopFeatures {
		ranked = ranked[:e.policy.TopFeatures]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// describe writes impact text for every feature above the impact threshold.
func (e *Explainer) describe(attributions models.AttributionMap) map[string]string {
	impact := make(map[string]string)
	for name, a := range attributions {
		magnitude := math.Abs(a)
		if magnitude <= e.policy.ImpactThreshold {
			continue
		}
		if a > 0 {
			impact[name] = fmt.Sprintf("Increases approval probability by %.3f", magnitude)
		} else {
			impact[name] = fmt.Sprintf("Decreases approval probability by %.3f", magnitude)
		}
	}
	return impact
}

// Package recommender converts the negative contributions of an explained
// decision into concrete suggestions and estimated probability gains.
package recommender

import (
	"context"
	"math"
	"sort"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/models"
)

// ApprovedMessage is the single recommendation returned for an approval.
const ApprovedMessage = "Congratulations! Your loan has been approved. Continue maintaining your good financial profile."

// approvedFeature is the pseudo-feature the approval message is filed under.
const approvedFeature = "loan_approved"

// Explainer is the part of the explainer the recommender depends on.
type Explainer interface {
	Explain(ctx context.Context, v models.FeatureVector) (*models.Explanation, error)
}

// Recommender generates recommendations from explanations.
type Recommender struct {
	explainer    Explainer
	policy       config.Policy
	featureOrder []string
}

// NewRecommender creates a recommender on top of an explainer.
func NewRecommender(explainer Explainer, policy config.Policy) *Recommender {
	return &Recommender{
		explainer:    explainer,
		policy:       policy,
		featureOrder: models.FeatureNames(),
	}
}

// Recommend explains v and derives recommendations from it. Explainer errors
// are returned unchanged.
func (r *Recommender) Recommend(ctx context.Context, v models.FeatureVector) (*models.RecommendationSet, error) {
	explanation, err := r.explainer.Explain(ctx, v)
	if err != nil {
		return nil, err
	}
	return r.FromExplanation(v, explanation), nil
}

// FromExplanation derives recommendations from an existing explanation of v.
func (r *Recommender) FromExplanation(v models.FeatureVector, explanation *models.Explanation) *models.RecommendationSet {
	if explanation.Approved() {
		return &models.RecommendationSet{
			CurrentPrediction: explanation.Prediction,
			Recommendations: []models.Recommendation{{
				Priority:       models.PriorityHigh,
				Feature:        approvedFeature,
				Recommendation: ApprovedMessage,
				Actionable:     true,
			}},
			PotentialImprovements: map[string]float64{},
		}
	}

	return &models.RecommendationSet{
		CurrentPrediction:     explanation.Prediction,
		Recommendations:       r.recommendations(v, explanation.TopFeatures),
		PotentialImprovements: r.improvements(v, explanation.Attributions),
	}
}

// recommendations runs the rule table over the negative top features, most
// negative first.
func (r *Recommender) recommendations(v models.FeatureVector, top []models.RankedFeature) []models.Recommendation {
	negative := make([]models.RankedFeature, 0, len(top))
	for _, rf := range top {
		if rf.Attribution < 0 {
			negative = append(negative, rf)
		}
	}
	sort.SliceStable(negative, func(i, j int) bool {
		return negative[i].Attribution < negative[j].Attribution
	})
	if len(negative) > r.policy.TopFeatures {
		negative = negative[:r.policy.TopFeatures]
	}

	out := make([]models.Recommendation, 0, len(negative))
	for _, rf := range negative {
		rule, ok := rules[rf.Feature]
		if !ok {
			continue
		}
		current, _ := v.Value(rf.Feature)
		text, ok := rule.advise(r.policy, current, v)
		if !ok {
			continue
		}
		out = append(out, models.Recommendation{
			Priority:       rule.priority,
			Feature:        rf.Feature,
			CurrentValue:   &current,
			Recommendation: text,
			Impact:         math.Abs(rf.Attribution),
			Actionable:     rule.actionable,
		})
	}
	return out
}

// improvements estimates gains over every feature whose attribution is below
// the negative improvement threshold.
func (r *Recommender) improvements(v models.FeatureVector, attributions models.AttributionMap) map[string]float64 {
	out := make(map[string]float64)
	for _, name := range r.featureOrder {
		a, ok := attributions[name]
		if !ok || a >= -r.policy.ImprovementThreshold {
			continue
		}
		estimate, ok := estimators[name]
		if !ok {
			continue
		}
		if delta, ok := estimate(r.policy, math.Abs(a), v); ok {
			out[name] = delta
		}
	}
	return out
}

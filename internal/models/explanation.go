// Package models defines the data structures for the loan decision explainer.
package models

import "strings"

// Class labels. The approval class is fixed at index 0.
const (
	LabelApproved = "Approved"
	LabelRejected = "Rejected"
)

// ApprovalClassIndex is the class every attribution value is oriented against.
const ApprovalClassIndex = 0

// classLabels lists the labels by class index.
var classLabels = []string{LabelApproved, LabelRejected}

// ClassIndex returns the class index of label, ignoring surrounding whitespace.
func ClassIndex(label string) (int, bool) {
	label = strings.TrimSpace(label)
	for i, l := range classLabels {
		if l == label {
			return i, true
		}
	}
	return -1, false
}

// ClassLabel returns the label at class index idx, or "" when out of range.
func ClassLabel(idx int) string {
	if idx < 0 || idx >= len(classLabels) {
		return ""
	}
	return classLabels[idx]
}

// Confidence is a coarse bucket over the predicted class probability.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ConfidenceFor buckets probability: High at 0.8 and above, Medium at 0.6
// and above, Low otherwise.
func ConfidenceFor(probability float64) Confidence {
	switch {
	case probability >= 0.8:
		return ConfidenceHigh
	case probability >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Prediction is the classifier's decision for one application.
type Prediction struct {
	Label              string     `json:"prediction"`
	Probability        float64    `json:"probability"`
	Confidence         Confidence `json:"confidence"`
	ClassProbabilities []float64  `json:"-"`
}

// Approved reports whether the decision is an approval.
func (p Prediction) Approved() bool {
	return p.Label == LabelApproved
}

// AttributionMap holds one signed contribution per feature. Positive values
// push toward approval.
type AttributionMap map[string]float64

// Impact is the direction of a feature's contribution.
type Impact string

const (
	ImpactPositive Impact = "Positive"
	ImpactNegative Impact = "Negative"
)

// RankedFeature is one entry of the top contributing features list.
type RankedFeature struct {
	Rank         int          `json:"rank"`
	Feature      string       `json:"feature"`
	Attribution  float64      `json:"shap_value"`
	FeatureValue FeatureValue `json:"feature_value"`
	Impact       Impact       `json:"impact"`
	Importance   float64      `json:"importance"`
}

// Explanation is the ranked, described account of a single decision.
type Explanation struct {
	Prediction    string            `json:"prediction"`
	Probability   float64           `json:"probability"`
	Confidence    Confidence        `json:"confidence"`
	Attributions  AttributionMap    `json:"shap_values"`
	TopFeatures   []RankedFeature   `json:"top_contributing_features"`
	FeatureImpact map[string]string `json:"feature_impact"`
}

// Approved reports whether the explained decision is an approval.
func (e *Explanation) Approved() bool {
	return e.Prediction == LabelApproved
}

// Priority orders recommendations for the applicant.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Recommendation is a single suggested change to the application.
type Recommendation struct {
	Priority       Priority      `json:"priority"`
	Feature        string        `json:"feature"`
	CurrentValue   *FeatureValue `json:"current_value,omitempty"`
	Recommendation string        `json:"recommendation"`
	Impact         float64       `json:"impact,omitempty"`
	Actionable     bool          `json:"actionable"`
}

// RecommendationSet is the full recommender output for one application.
type RecommendationSet struct {
	CurrentPrediction     string             `json:"current_prediction"`
	Recommendations       []Recommendation   `json:"recommendations"`
	PotentialImprovements map[string]float64 `json:"potential_improvements"`
}

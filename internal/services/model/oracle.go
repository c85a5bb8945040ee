// Package model provides the classifier and attribution oracles consumed by
// the explainer, and the artifact they are loaded from.
package model

import (
	"context"
	"sync"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/attribution"
)

// ClassifierOracle predicts a label and per-class probabilities. Class index
// 0 is the approval class.
type ClassifierOracle interface {
	Predict(ctx context.Context, v models.FeatureVector) (string, []float64, error)
}

// AttributionOracle produces raw per-feature attributions for one application,
// in the same feature order as the classifier.
type AttributionOracle interface {
	RawAttribution(ctx context.Context, v models.FeatureVector) (attribution.RawAttribution, error)
}

// LockedClassifier serializes calls to a classifier that is not safe for
// concurrent use.
type LockedClassifier struct {
	mu    sync.Mutex
	inner ClassifierOracle
}

// NewLockedClassifier wraps inner behind a single mutex.
func NewLockedClassifier(inner ClassifierOracle) *LockedClassifier {
	return &LockedClassifier{inner: inner}
}

// Predict implements ClassifierOracle.
func (l *LockedClassifier) Predict(ctx context.Context, v models.FeatureVector) (string, []float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Predict(ctx, v)
}

// LockedAttributor serializes calls to an attribution oracle that is not
// safe for concurrent use.
type LockedAttributor struct {
	mu    sync.Mutex
	inner AttributionOracle
}

// NewLockedAttributor wraps inner behind a single mutex.
func NewLockedAttributor(inner AttributionOracle) *LockedAttributor {
	return &LockedAttributor{inner: inner}
}

// RawAttribution implements AttributionOracle.
func (l *LockedAttributor) RawAttribution(ctx context.Context, v models.FeatureVector) (attribution.RawAttribution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.RawAttribution(ctx, v)
}

// ConcurrentOracle is implemented by oracles that are safe for concurrent use
// without a lock.
type ConcurrentOracle interface {
	SafeForConcurrentUse() bool
}

// Guard prepares a classifier and attributor for concurrent callers. Oracles
// that do not report themselves safe are wrapped in a lock.
func Guard(classifier ClassifierOracle, attributor AttributionOracle) (ClassifierOracle, AttributionOracle) {
	if !concurrent(classifier) {
		classifier = NewLockedClassifier(classifier)
	}
	if !concurrent(attributor) {
		attributor = NewLockedAttributor(attributor)
	}
	return classifier, attributor
}

func concurrent(oracle interface{}) bool {
	c, ok := oracle.(ConcurrentOracle)
	return ok && c.SafeForConcurrentUse()
}

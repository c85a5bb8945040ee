// Package pipeline assembles the predictor, explainer and recommender around
// one pair of oracles.
package pipeline

import (
	"context"
	"fmt"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/services/explainer"
	"loan-decision-explainer/internal/services/model"
	"loan-decision-explainer/internal/services/predictor"
	"loan-decision-explainer/internal/services/recommender"
	"loan-decision-explainer/internal/utils"
)

// ModelInfo describes the loaded classifier.
type ModelInfo struct {
	Name    string
	Version string
}

// Pipeline holds the process-wide decision services. Everything in it is
// safe for concurrent use.
type Pipeline struct {
	Info        ModelInfo
	Policy      config.Policy
	Predictor   *predictor.Predictor
	Explainer   *explainer.Explainer
	Recommender *recommender.Recommender
}

// New builds a pipeline over the given oracles. Oracles that are not safe
// for concurrent use are serialized.
func New(classifier model.ClassifierOracle, attributor model.AttributionOracle, policy config.Policy, concurrency int, info ModelInfo) *Pipeline {
	classifier, attributor = model.Guard(classifier, attributor)
	p := predictor.NewPredictor(classifier, concurrency)
	e := explainer.NewExplainer(p, attributor, policy)
	return &Pipeline{
		Info:        info,
		Policy:      policy,
		Predictor:   p,
		Explainer:   e,
		Recommender: recommender.NewRecommender(e, policy),
	}
}

// Load reads the model artifact and policy named by cfg and builds a
// pipeline on the linear model. objects may be nil when MODEL_PATH is not an
// s3:// path.
func Load(ctx context.Context, cfg *config.Config, objects model.ObjectReader) (*Pipeline, error) {
	artifact, err := model.ReadArtifact(ctx, cfg.ModelPath, objects)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	linear, err := model.NewLinearModel(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("Model loaded",
		utils.String("name", linear.Name()),
		utils.String("version", linear.Version()),
		utils.String("source", sourceOf(cfg.ModelPath)),
	)

	return New(linear, linear, policy, cfg.BatchConcurrency, ModelInfo{
		Name:    linear.Name(),
		Version: linear.Version(),
	}), nil
}

func sourceOf(path string) string {
	if path == "" {
		return "bundled"
	}
	return path
}

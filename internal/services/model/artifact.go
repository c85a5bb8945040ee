package model

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/services/attribution"
)

//go:embed default_model.json
var defaultArtifact []byte

// Artifact is the persisted form of a trained linear classifier.
type Artifact struct {
	Name              string                        `json:"name"`
	Version           string                        `json:"version"`
	Classes           []string                      `json:"classes"`
	Intercept         float64                       `json:"intercept"`
	Features          []FeatureSpec                 `json:"features"`
	Categories        map[string]map[string]float64 `json:"categories"`
	AttributionLayout string                        `json:"attribution_layout"`
}

// FeatureSpec holds the standardization and weight of one input feature.
type FeatureSpec struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

// ObjectReader fetches an object body from a bucket.
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// ParseArtifact decodes and checks an artifact document.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// DefaultArtifact returns the artifact bundled with the binary.
func DefaultArtifact() (*Artifact, error) {
	return ParseArtifact(defaultArtifact)
}

// ReadArtifact loads an artifact from path. Paths of the form
// s3://bucket/key are fetched through objects; an empty path yields the
// bundled default.
func ReadArtifact(ctx context.Context, path string, objects ObjectReader) (*Artifact, error) {
	if path == "" {
		return DefaultArtifact()
	}

	if rest, ok := strings.CutPrefix(path, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid S3 model path %q", path)
		}
		if objects == nil {
			return nil, errors.New("S3 model path given but no object store configured")
		}
		data, err := objects.GetObject(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch model artifact: %w", err)
		}
		return ParseArtifact(data)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	return ParseArtifact(data)
}

// Validate checks that the artifact matches the feature set and class order.
func (a *Artifact) Validate() error {
	if len(a.Classes) != 2 {
		return fmt.Errorf("model artifact must have 2 classes, got %d", len(a.Classes))
	}
	for i, label := range a.Classes {
		if idx, ok := models.ClassIndex(label); !ok || idx != i {
			return fmt.Errorf("model artifact class %d is %q, want %q", i, label, []string{models.LabelApproved, models.LabelRejected}[i])
		}
	}

	names := models.FeatureNames()
	if len(a.Features) != len(names) {
		return fmt.Errorf("model artifact has %d features, want %d", len(a.Features), len(names))
	}
	for i, spec := range a.Features {
		if spec.Name != names[i] {
			return fmt.Errorf("model artifact feature %d is %q, want %q", i, spec.Name, names[i])
		}
		if models.IsCategoricalFeature(spec.Name) && len(a.Categories[spec.Name]) == 0 {
			return fmt.Errorf("model artifact has no category encoding for %s", spec.Name)
		}
	}

	if a.AttributionLayout != "" {
		if _, err := attribution.ParseKind(a.AttributionLayout); err != nil {
			return err
		}
	}
	return nil
}

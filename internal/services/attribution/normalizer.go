// Package attribution canonicalizes raw per-feature attribution output into
// one signed value per feature, oriented toward the approval class.
package attribution

import (
	"fmt"
	"strings"

	"loan-decision-explainer/internal/models"
)

// Kind tags the shape a RawAttribution arrived in.
type Kind int

const (
	KindFlat           Kind = iota + 1 // [features]
	KindPerSample                      // [samples][features]
	KindPerSampleClass                 // [samples][features][classes]
	KindPerClassPair                   // [classes][samples][features], binary
)

var kindNames = map[Kind]string{
	KindFlat:           "flat",
	KindPerSample:      "per_sample",
	KindPerSampleClass: "per_sample_class",
	KindPerClassPair:   "per_class_pair",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a layout name such as "per_sample_class".
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attribution layout %q", name)
}

// RawAttribution is the tagged variant produced by an attribution oracle.
// Only the field matching Kind is read.
type RawAttribution struct {
	Kind           Kind
	Flat           []float64
	PerSample      [][]float64
	PerSampleClass [][][]float64
	PerClass       [][][]float64
}

// Flat wraps a single vector of per-feature values.
func Flat(values []float64) RawAttribution {
	return RawAttribution{Kind: KindFlat, Flat: values}
}

// PerSample wraps a [samples][features] matrix.
func PerSample(rows [][]float64) RawAttribution {
	return RawAttribution{Kind: KindPerSample, PerSample: rows}
}

// PerSampleClass wraps a [samples][features][classes] tensor.
func PerSampleClass(t [][][]float64) RawAttribution {
	return RawAttribution{Kind: KindPerSampleClass, PerSampleClass: t}
}

// PerClassPair wraps one [samples][features] matrix per class. A flat
// per-class vector is passed as a single row.
func PerClassPair(approved, rejected [][]float64) RawAttribution {
	return RawAttribution{Kind: KindPerClassPair, PerClass: [][][]float64{approved, rejected}}
}

// Normalize resolves raw into one value per feature in featureOrder. Class
// index 0 is selected wherever a class dimension exists, so positive values
// always favor approval.
func Normalize(raw RawAttribution, featureOrder []string) (models.AttributionMap, error) {
	values, err := resolve(raw)
	if err != nil {
		return nil, err
	}

	if len(values) != len(featureOrder) {
		return nil, &models.ShapeError{
			Reason: fmt.Sprintf("%s attribution does not match feature count", raw.Kind),
			Got:    len(values),
			Want:   len(featureOrder),
		}
	}

	out := make(models.AttributionMap, len(featureOrder))
	for i, name := range featureOrder {
		out[name] = values[i]
	}
	return out, nil
}

func resolve(raw RawAttribution) ([]float64, error) {
	switch raw.Kind {
	case KindFlat:
		return raw.Flat, nil

	case KindPerSample:
		if len(raw.PerSample) == 0 {
			return nil, &models.ShapeError{Reason: "per_sample attribution has no samples"}
		}
		return raw.PerSample[0], nil

	case KindPerSampleClass:
		if len(raw.PerSampleClass) == 0 {
			return nil, &models.ShapeError{Reason: "per_sample_class attribution has no samples"}
		}
		sample := raw.PerSampleClass[0]
		values := make([]float64, len(sample))
		for i, classes := range sample {
			if len(classes) <= models.ApprovalClassIndex {
				return nil, &models.ShapeError{Reason: fmt.Sprintf("feature %d has no approval class value", i)}
			}
			values[i] = classes[models.ApprovalClassIndex]
		}
		return values, nil

	case KindPerClassPair:
		if len(raw.PerClass) != 2 {
			return nil, &models.ShapeError{Reason: fmt.Sprintf("per_class_pair needs 2 classes, got %d", len(raw.PerClass))}
		}
		approved := raw.PerClass[models.ApprovalClassIndex]
		if len(approved) == 0 {
			return nil, &models.ShapeError{Reason: "per_class_pair approval class has no samples"}
		}
		return approved[0], nil

	default:
		return nil, &models.ShapeError{Reason: fmt.Sprintf("unsupported attribution %s", raw.Kind)}
	}
}

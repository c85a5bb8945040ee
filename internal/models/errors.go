// Package models defines the data structures for the loan decision explainer.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrMissingFeature     = errors.New("missing required feature")
	ErrOracle             = errors.New("oracle call failed")
	ErrShape              = errors.New("unrecognized attribution shape")
	ErrInvalidApplication = errors.New("invalid loan application")
)

// MissingFeatureError is returned when a FeatureVector reaching the core lacks
// one or more of the required features.
type MissingFeatureError struct {
	Features []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required features: %s", strings.Join(e.Features, ", "))
}

func (e *MissingFeatureError) Unwrap() error {
	return ErrMissingFeature
}

// OracleError wraps a failure raised by the classifier or attribution oracle.
type OracleError struct {
	Oracle string
	Err    error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%s oracle: %v", e.Oracle, e.Err)
}

func (e *OracleError) Unwrap() []error {
	return []error{ErrOracle, e.Err}
}

// ShapeError reports an attribution tensor that could not be resolved into
// one value per feature.
type ShapeError struct {
	Reason string
	Got    int
	Want   int
}

func (e *ShapeError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("attribution shape: %s (got %d values, want %d)", e.Reason, e.Got, e.Want)
	}
	return "attribution shape: " + e.Reason
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// ValidationError collects the field-level problems found in a LoanApplication.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidApplication
}

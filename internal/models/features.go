// Package models defines the data structures for the loan decision explainer.
package models

import (
	"encoding/json"
	"strconv"
)

// Feature names, in the order the classifier was trained on.
const (
	FeatureNoOfDependents         = "no_of_dependents"
	FeatureEducation              = "education"
	FeatureSelfEmployed           = "self_employed"
	FeatureIncomeAnnum            = "income_annum"
	FeatureLoanAmount             = "loan_amount"
	FeatureLoanTerm               = "loan_term"
	FeatureCibilScore             = "cibil_score"
	FeatureResidentialAssetsValue = "residential_assets_value"
	FeatureCommercialAssetsValue  = "commercial_assets_value"
	FeatureLuxuryAssetsValue      = "luxury_assets_value"
	FeatureBankAssetValue         = "bank_asset_value"
)

// featureOrder is the declaration order used for ranking tie-breaks.
var featureOrder = []string{
	FeatureNoOfDependents,
	FeatureEducation,
	FeatureSelfEmployed,
	FeatureIncomeAnnum,
	FeatureLoanAmount,
	FeatureLoanTerm,
	FeatureCibilScore,
	FeatureResidentialAssetsValue,
	FeatureCommercialAssetsValue,
	FeatureLuxuryAssetsValue,
	FeatureBankAssetValue,
}

// FeatureNames returns a copy of the feature names in declaration order.
func FeatureNames() []string {
	names := make([]string, len(featureOrder))
	copy(names, featureOrder)
	return names
}

// IsCategoricalFeature reports whether the feature holds a category string.
func IsCategoricalFeature(name string) bool {
	return name == FeatureEducation || name == FeatureSelfEmployed
}

// FeatureValue is a single typed scalar: a number, or a category for
// education and self_employed.
type FeatureValue struct {
	Number   float64
	Category string
}

// NumberValue wraps a numeric feature value.
func NumberValue(n float64) FeatureValue {
	return FeatureValue{Number: n}
}

// CategoryValue wraps a categorical feature value.
func CategoryValue(c string) FeatureValue {
	return FeatureValue{Category: c}
}

// IsCategorical reports whether the value is a category.
func (v FeatureValue) IsCategorical() bool {
	return v.Category != ""
}

// String renders the value the way it appears in recommendation text.
func (v FeatureValue) String() string {
	if v.IsCategorical() {
		return v.Category
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

// MarshalJSON emits a JSON number for numeric values and a string for categories.
func (v FeatureValue) MarshalJSON() ([]byte, error) {
	if v.IsCategorical() {
		return json.Marshal(v.Category)
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (v *FeatureValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = CategoryValue(s)
	return nil
}

// FeatureVector maps feature names to values. It is immutable once built:
// the constructor copies its input and only read accessors are exposed.
type FeatureVector struct {
	values map[string]FeatureValue
}

// NewFeatureVector builds a FeatureVector from a copy of values.
func NewFeatureVector(values map[string]FeatureValue) FeatureVector {
	copied := make(map[string]FeatureValue, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return FeatureVector{values: copied}
}

// Value returns the value stored for name.
func (v FeatureVector) Value(name string) (FeatureValue, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Number returns the numeric value for name, or 0 when absent.
func (v FeatureVector) Number(name string) float64 {
	return v.values[name].Number
}

// Len returns the number of features present.
func (v FeatureVector) Len() int {
	return len(v.values)
}

// Missing lists the names in required that have no value, in order.
func (v FeatureVector) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := v.values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Require returns a MissingFeatureError when any of required is absent.
func (v FeatureVector) Require(required []string) error {
	if missing := v.Missing(required); len(missing) > 0 {
		return &MissingFeatureError{Features: missing}
	}
	return nil
}

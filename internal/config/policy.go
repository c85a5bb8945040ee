package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the fixed constants used by the explainer and recommender.
// Values are not derived from the model; they are configuration.
type Policy struct {
	// Explanation
	TopFeatures     int     `yaml:"top_features"`
	ImpactThreshold float64 `yaml:"impact_threshold"`

	// Improvement estimates
	ImprovementThreshold float64 `yaml:"improvement_threshold"`
	CibilTarget          float64 `yaml:"cibil_target"`
	CibilScale           float64 `yaml:"cibil_scale"`

	// Recommendation rules
	CibilMinimum             float64 `yaml:"cibil_minimum"`
	MaxLoanToIncome          float64 `yaml:"max_loan_to_income"`
	MaxLoanTerm              float64 `yaml:"max_loan_term"`
	TargetLoanTermMin        float64 `yaml:"target_loan_term_min"`
	IncomeIncrease           float64 `yaml:"income_increase"`
	BankAssetIncrease        float64 `yaml:"bank_asset_increase"`
	ResidentialAssetIncrease float64 `yaml:"residential_asset_increase"`
}

// DefaultPolicy returns the constants the service ships with.
func DefaultPolicy() Policy {
	return Policy{
		TopFeatures:     5,
		ImpactThreshold: 0.1,

		ImprovementThreshold: 0.05,
		CibilTarget:          750,
		CibilScale:           900,

		CibilMinimum:             550,
		MaxLoanToIncome:          3,
		MaxLoanTerm:              15,
		TargetLoanTermMin:        10,
		IncomeIncrease:           0.2,
		BankAssetIncrease:        0.5,
		ResidentialAssetIncrease: 0.3,
	}
}

// LoadPolicy reads a YAML policy file over the defaults. An empty path
// returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return policy, nil
}

// Validate rejects values that would make the rules meaningless.
func (p Policy) Validate() error {
	var errs []error
	if p.TopFeatures < 1 {
		errs = append(errs, errors.New("top_features must be at least 1"))
	}
	if p.ImpactThreshold < 0 || p.ImprovementThreshold < 0 {
		errs = append(errs, errors.New("thresholds cannot be negative"))
	}
	if p.CibilScale <= 0 {
		errs = append(errs, errors.New("cibil_scale must be positive"))
	}
	if p.MaxLoanToIncome <= 0 {
		errs = append(errs, errors.New("max_loan_to_income must be positive"))
	}
	if p.TargetLoanTermMin > p.MaxLoanTerm {
		errs = append(errs, errors.New("target_loan_term_min cannot exceed max_loan_term"))
	}
	if p.IncomeIncrease < 0 || p.BankAssetIncrease < 0 || p.ResidentialAssetIncrease < 0 {
		errs = append(errs, errors.New("increase factors cannot be negative"))
	}
	return errors.Join(errs...)
}

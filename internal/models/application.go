// Package models defines the data structures for the loan decision explainer.
package models

import (
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Accepted category values.
const (
	EducationGraduate    = "Graduate"
	EducationNotGraduate = "Not Graduate"
	SelfEmployedYes      = "Yes"
	SelfEmployedNo       = "No"
)

// LoanApplication is the raw request payload for a single applicant.
type LoanApplication struct {
	NoOfDependents         int     `json:"no_of_dependents" validate:"gte=0,lte=10"`
	Education              string  `json:"education" validate:"education"`
	SelfEmployed           string  `json:"self_employed" validate:"yesno"`
	IncomeAnnum            float64 `json:"income_annum" validate:"finite,gte=0"`
	LoanAmount             float64 `json:"loan_amount" validate:"finite,gte=0"`
	LoanTerm               int     `json:"loan_term" validate:"gte=1,lte=30"`
	CibilScore             int     `json:"cibil_score" validate:"gte=300,lte=900"`
	ResidentialAssetsValue float64 `json:"residential_assets_value" validate:"finite,gte=0"`
	CommercialAssetsValue  float64 `json:"commercial_assets_value" validate:"finite,gte=0"`
	LuxuryAssetsValue      float64 `json:"luxury_assets_value" validate:"finite,gte=0"`
	BankAssetValue         float64 `json:"bank_asset_value" validate:"finite,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("education", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == EducationGraduate || s == EducationNotGraduate
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
	_ = v.RegisterValidation("yesno", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == SelfEmployedYes || s == SelfEmployedNo
	})
	return v
}

// fieldMessages maps struct fields to the message shown to API callers.
var fieldMessages = map[string]string{
	"NoOfDependents":         "Number of dependents must be between 0 and 10",
	"Education":              "Education must be 'Graduate' or 'Not Graduate'",
	"SelfEmployed":           "Self_employed must be 'Yes' or 'No'",
	"IncomeAnnum":            "Invalid value for income_annum: must be zero or greater",
	"LoanAmount":             "Invalid value for loan_amount: must be zero or greater",
	"LoanTerm":               "Loan term must be between 1 and 30 years",
	"CibilScore":             "CIBIL score must be between 300 and 900",
	"ResidentialAssetsValue": "Invalid value for residential_assets_value: must be zero or greater",
	"CommercialAssetsValue":  "Invalid value for commercial_assets_value: must be zero or greater",
	"LuxuryAssetsValue":      "Invalid value for luxury_assets_value: must be zero or greater",
	"BankAssetValue":         "Invalid value for bank_asset_value: must be zero or greater",
}

// Validate checks ranges and category values. The returned error, if any, is
// a *ValidationError.
func (a *LoanApplication) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if msg, ok := fieldMessages[fe.Field()]; ok {
			problems = append(problems, msg)
			continue
		}
		problems = append(problems, fe.Error())
	}
	return &ValidationError{Problems: problems}
}

// Normalize trims the categorical fields, so " Graduate" and "Graduate" are
// treated alike.
func (a *LoanApplication) Normalize() {
	a.Education = strings.TrimSpace(a.Education)
	a.SelfEmployed = strings.TrimSpace(a.SelfEmployed)
}

// ToFeatureVector normalizes and validates the application and converts it
// into a FeatureVector.
func (a LoanApplication) ToFeatureVector() (FeatureVector, error) {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return FeatureVector{}, err
	}

	return NewFeatureVector(map[string]FeatureValue{
		FeatureNoOfDependents:         NumberValue(float64(a.NoOfDependents)),
		FeatureEducation:              CategoryValue(a.Education),
		FeatureSelfEmployed:           CategoryValue(a.SelfEmployed),
		FeatureIncomeAnnum:            NumberValue(a.IncomeAnnum),
		FeatureLoanAmount:             NumberValue(a.LoanAmount),
		FeatureLoanTerm:               NumberValue(float64(a.LoanTerm)),
		FeatureCibilScore:             NumberValue(float64(a.CibilScore)),
		FeatureResidentialAssetsValue: NumberValue(a.ResidentialAssetsValue),
		FeatureCommercialAssetsValue:  NumberValue(a.CommercialAssetsValue),
		FeatureLuxuryAssetsValue:      NumberValue(a.LuxuryAssetsValue),
		FeatureBankAssetValue:         NumberValue(a.BankAssetValue),
	}), nil
}

// SampleApplication returns the example applicant used by the templates.
func SampleApplication() LoanApplication {
	return LoanApplication{
		NoOfDependents:         2,
		Education:              EducationGraduate,
		SelfEmployed:           SelfEmployedNo,
		IncomeAnnum:            8000000,
		LoanAmount:             25000000,
		LoanTerm:               15,
		CibilScore:             750,
		ResidentialAssetsValue: 5000000,
		CommercialAssetsValue:  3000000,
		LuxuryAssetsValue:      2000000,
		BankAssetValue:         1000000,
	}
}

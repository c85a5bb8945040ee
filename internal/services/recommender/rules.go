package recommender

import (
	"fmt"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/models"
	"loan-decision-explainer/internal/utils"
)

// rule turns a negative contribution of one feature into advice. advise
// returns false when the rule's trigger does not hold.
type rule struct {
	priority   models.Priority
	actionable bool
	advise     func(p config.Policy, current models.FeatureValue, v models.FeatureVector) (string, bool)
}

// rules holds one entry per feature the recommender knows how to act on.
// Features without an entry never produce a recommendation.
var rules = map[string]rule{
	models.FeatureCibilScore: {
		priority:   models.PriorityHigh,
		actionable: true,
		advise: func(p config.Policy, current models.FeatureValue, _ models.FeatureVector) (string, bool) {
			if current.Number >= p.CibilMinimum {
				return "", false
			}
			return fmt.Sprintf("Improve CIBIL score from %s to %g+ for better approval chances",
				current, p.CibilMinimum), true
		},
	},
	models.FeatureIncomeAnnum: {
		priority:   models.PriorityMedium,
		actionable: true,
		advise: func(p config.Policy, current models.FeatureValue, _ models.FeatureVector) (string, bool) {
			return fmt.Sprintf("Increase annual income from %s to %s",
				utils.FormatRupees(current.Number),
				utils.FormatRupees(current.Number*(1+p.IncomeIncrease))), true
		},
	},
	models.FeatureLoanAmount: {
		priority:   models.PriorityHigh,
		actionable: true,
		advise: func(p config.Policy, current models.FeatureValue, v models.FeatureVector) (string, bool) {
			target := v.Number(models.FeatureIncomeAnnum) * p.MaxLoanToIncome
			if current.Number <= target {
				return "", false
			}
			return fmt.Sprintf("Reduce loan amount from %s to %s (%gx annual income)",
				utils.FormatRupees(current.Number), utils.FormatRupees(target), p.MaxLoanToIncome), true
		},
	},
	models.FeatureLoanTerm: {
		priority:   models.PriorityMedium,
		actionable: true,
		advise: func(p config.Policy, current models.FeatureValue, _ models.FeatureVector) (string, bool) {
			if current.Number <= p.MaxLoanTerm {
				return "", false
			}
			return fmt.Sprintf("Consider reducing loan term from %s to %g-%g years",
				current, p.TargetLoanTermMin, p.MaxLoanTerm), true
		},
	},
	models.FeatureBankAssetValue: {
		priority:   models.PriorityMedium,
		actionable: true,
		advise: func(p config.Policy, current models.FeatureValue, _ models.FeatureVector) (string, bool) {
			return fmt.Sprintf("Increase bank assets from %s to %s",
				utils.FormatRupees(current.Number),
				utils.FormatRupees(current.Number*(1+p.BankAssetIncrease))), true
		},
	},
	models.FeatureResidentialAssetsValue: {
		priority:   models.PriorityLow,
		actionable: false,
		advise: func(p config.Policy, current models.FeatureValue, _ models.FeatureVector) (string, bool) {
			return fmt.Sprintf("Increase residential assets from %s to %s",
				utils.FormatRupees(current.Number),
				utils.FormatRupees(current.Number*(1+p.ResidentialAssetIncrease))), true
		},
	},
}

// estimator approximates the approval probability gained by acting on a
// feature whose attribution magnitude is weight.
type estimator func(p config.Policy, weight float64, v models.FeatureVector) (float64, bool)

var estimators = map[string]estimator{
	models.FeatureCibilScore: func(p config.Policy, weight float64, v models.FeatureVector) (float64, bool) {
		current := v.Number(models.FeatureCibilScore)
		if current >= p.CibilTarget {
			return 0, false
		}
		return weight * (p.CibilTarget - current) / p.CibilScale, true
	},
	models.FeatureLoanAmount: func(p config.Policy, weight float64, v models.FeatureVector) (float64, bool) {
		current := v.Number(models.FeatureLoanAmount)
		target := v.Number(models.FeatureIncomeAnnum) * p.MaxLoanToIncome
		if current <= target {
			return 0, false
		}
		return weight * (current - target) / current, true
	},
	models.FeatureIncomeAnnum: func(p config.Policy, weight float64, _ models.FeatureVector) (float64, bool) {
		return weight * p.IncomeIncrease, true
	},
}

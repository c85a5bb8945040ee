// Package utils provides utility functions for the loan decision explainer.
package utils

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"loan-decision-explainer/internal/models"
)

// Template is the JSON form of the application template.
type Template struct {
	Columns    []string               `json:"columns"`
	SampleData models.LoanApplication `json:"sample_data"`
}

// TemplateFilename is the download name of the template CSV.
const TemplateFilename = "loan_application_template.csv"

// NewTemplate returns the column list and the sample application.
func NewTemplate() Template {
	return Template{
		Columns:    models.FeatureNames(),
		SampleData: models.SampleApplication(),
	}
}

// TemplateCSV renders the header and one sample row.
func TemplateCSV() ([]byte, error) {
	sample := models.SampleApplication()
	values := map[string]string{
		models.FeatureNoOfDependents:         strconv.Itoa(sample.NoOfDependents),
		models.FeatureEducation:              sample.Education,
		models.FeatureSelfEmployed:           sample.SelfEmployed,
		models.FeatureIncomeAnnum:            formatPlain(sample.IncomeAnnum),
		models.FeatureLoanAmount:             formatPlain(sample.LoanAmount),
		models.FeatureLoanTerm:               strconv.Itoa(sample.LoanTerm),
		models.FeatureCibilScore:             strconv.Itoa(sample.CibilScore),
		models.FeatureResidentialAssetsValue: formatPlain(sample.ResidentialAssetsValue),
		models.FeatureCommercialAssetsValue:  formatPlain(sample.CommercialAssetsValue),
		models.FeatureLuxuryAssetsValue:      formatPlain(sample.LuxuryAssetsValue),
		models.FeatureBankAssetValue:         formatPlain(sample.BankAssetValue),
	}

	columns := models.FeatureNames()
	row := make([]string, len(columns))
	for i, name := range columns {
		row[i] = values[name]
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{columns, row}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

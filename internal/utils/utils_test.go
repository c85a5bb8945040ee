package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-decision-explainer/internal/models"
)

const header = "no_of_dependents,education,self_employed,income_annum,loan_amount,loan_term,cibil_score,residential_assets_value,commercial_assets_value,luxury_assets_value,bank_asset_value\n"

func TestParseApplications(t *testing.T) {
	content := header +
		"2, Graduate, No,8000000,25000000,15,750,5000000,3000000,2000000,1000000\n" +
		"1,Not Graduate,Yes,\"₹4,500,000\",\"9,000,000\",10,610.0,0,0,0,250000\n" +
		"3,Graduate,No,abc,1,1,700,0,0,0,0\n" +
		",,,,,,,,,,\n"

	rows, err := NewCSVParser().ParseApplications(content)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	require.NoError(t, first.Err)
	assert.Equal(t, models.SampleApplication(), first.Application)

	second := rows[1]
	require.NoError(t, second.Err)
	assert.Equal(t, 4500000.0, second.Application.IncomeAnnum)
	assert.Equal(t, 9000000.0, second.Application.LoanAmount)
	assert.Equal(t, 610, second.Application.CibilScore)
	assert.Equal(t, models.SelfEmployedYes, second.Application.SelfEmployed)

	assert.Equal(t, 4, rows[2].Line)
	assert.ErrorContains(t, rows[2].Err, "invalid income_annum")
}

func TestParseApplications_Aliases(t *testing.T) {
	content := "Dependents,Education,Self Employed,Annual Income,Loan Amount,Term,CIBIL,residential_assets,commercial_assets,luxury_assets,bank_assets\n" +
		"0,Graduate,No,1200000,3000000,5,800,0,0,0,100000\n"

	rows, err := NewCSVParser().ParseApplications(content)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)
	assert.Equal(t, 800, rows[0].Application.CibilScore)
	assert.Equal(t, 5, rows[0].Application.LoanTerm)
}

func TestParseApplications_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"infinite income", "2,Graduate,No,inf,inf,15,750,0,0,0,0", "invalid income_annum"},
		{"signed infinity", "2,Graduate,No,8000000,+Inf,15,750,0,0,0,0", "invalid loan_amount"},
		{"nan asset", "2,Graduate,No,8000000,25000000,15,750,NaN,0,0,0", "invalid residential_assets_value"},
		{"fractional cibil", "2,Graduate,No,8000000,25000000,15,750.9,0,0,0,0", "invalid cibil_score"},
		{"fractional dependents", "2.5,Graduate,No,8000000,25000000,15,750,0,0,0,0", "invalid no_of_dependents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := NewCSVParser().ParseApplications(header + tt.row + "\n")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.ErrorContains(t, rows[0].Err, tt.want)
		})
	}
}

func TestParseApplications_FileErrors(t *testing.T) {
	_, err := NewCSVParser().ParseApplications("  ")
	assert.ErrorIs(t, err, ErrEmptyCSV)

	_, err = NewCSVParser().ParseApplications("education,cibil_score\nGraduate,700\n")
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.ErrorContains(t, err, "no_of_dependents")

	_, err = NewCSVParser().ParseApplications(header)
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestWritePredictionsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WritePredictionsCSV(&buf, []PredictionRecord{
		{Line: 2, Prediction: &models.Prediction{Label: "Approved", Probability: 0.91234, Confidence: models.ConfidenceHigh}},
		{Line: 3, Err: errors.New("CIBIL score must be between 300 and 900")},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"line,prediction,probability,confidence,error\n"+
			"2,Approved,0.9123,High,\n"+
			"3,Error,0,Error,CIBIL score must be between 300 and 900\n",
		buf.String())
}

func TestValidateCSVStructure(t *testing.T) {
	result, err := ValidateCSVStructure(header + "2,Graduate,No,1,1,1,700,0,0,0,0\n")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.RowCount)
	assert.Empty(t, result.MissingColumns)

	result, err = ValidateCSVStructure("cibil\n700\n")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Len(t, result.MissingColumns, 10)

	result, err = ValidateCSVStructure("")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty file"}, result.Errors)
}

func TestTemplateCSV_RoundTrips(t *testing.T) {
	data, err := TemplateCSV()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), header))

	rows, err := NewCSVParser().ParseApplications(string(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SampleApplication(), rows[0].Application)
}

func TestNewTemplate(t *testing.T) {
	tmpl := NewTemplate()
	assert.Equal(t, models.FeatureNames(), tmpl.Columns)
	assert.Equal(t, 750, tmpl.SampleData.CibilScore)
}

func TestFormatRupees(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{24000000, "₹24,000,000"},
		{9600000.000000002, "₹9,600,000"},
		{999.5, "₹1,000"},
		{0, "₹0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRupees(tt.in))
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("DEBUG").String())
	assert.Equal(t, "warn", ParseLevel("warning").String())
	assert.Equal(t, "info", ParseLevel("verbose").String())
}

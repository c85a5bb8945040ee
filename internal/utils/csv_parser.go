// Package utils provides utility functions for the loan decision explainer.
package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"loan-decision-explainer/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns defines the columns that must be present in the CSV.
var RequiredColumns = models.FeatureNames()

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	// no_of_dependents aliases
	"dependents":       "no_of_dependents",
	"no of dependents": "no_of_dependents",
	"num_dependents":   "no_of_dependents",

	// self_employed aliases
	"self employed": "self_employed",
	"selfemployed":  "self_employed",

	// income aliases
	"income":        "income_annum",
	"annual_income": "income_annum",
	"annualincome":  "income_annum",
	"annual income": "income_annum",
	"income annum":  "income_annum",

	// loan aliases
	"loan":        "loan_amount",
	"loanamount":  "loan_amount",
	"loan amount": "loan_amount",
	"term":        "loan_term",
	"loanterm":    "loan_term",
	"loan term":   "loan_term",

	// cibil_score aliases
	"cibil":        "cibil_score",
	"cibilscore":   "cibil_score",
	"cibil score":  "cibil_score",
	"credit_score": "cibil_score",
	"creditscore":  "cibil_score",
	"credit score": "cibil_score",

	// asset aliases
	"residential_assets": "residential_assets_value",
	"commercial_assets":  "commercial_assets_value",
	"luxury_assets":      "luxury_assets_value",
	"bank_assets":        "bank_asset_value",
	"bank_assets_value":  "bank_asset_value",
}

// ApplicationRow is one data row of an applications CSV. Err is set when the
// row could not be read into an application.
type ApplicationRow struct {
	Line        int
	Application models.LoanApplication
	Err         error
}

// CSVParser handles parsing of loan application CSV files.
type CSVParser struct {
	columnMapping map[string]int
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping: make(map[string]int),
	}
}

// ParseApplications parses CSV content into one ApplicationRow per data row.
// Only problems with the file as a whole are returned as an error; a bad row
// is reported on the row itself.
func (p *CSVParser) ParseApplications(content string) ([]ApplicationRow, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyCSV
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := p.buildColumnMapping(header); err != nil {
		return nil, err
	}

	var rows []ApplicationRow
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rows = append(rows, ApplicationRow{Line: lineNum, Err: err})
			continue
		}
		if isBlank(record) {
			continue
		}

		app, err := p.parseRow(record)
		rows = append(rows, ApplicationRow{Line: lineNum, Application: app, Err: err})
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		normalized := normalizeColumn(col)
		p.columnMapping[normalized] = i
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow parses a single CSV row into a LoanApplication. Range checks are
// left to LoanApplication.Validate.
func (p *CSVParser) parseRow(record []string) (models.LoanApplication, error) {
	var app models.LoanApplication

	getValue := func(column string) (string, error) {
		idx := p.columnMapping[column]
		if idx >= len(record) {
			return "", fmt.Errorf("column %s index out of range", column)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	ints := map[string]*int{
		models.FeatureNoOfDependents: &app.NoOfDependents,
		models.FeatureLoanTerm:       &app.LoanTerm,
		models.FeatureCibilScore:     &app.CibilScore,
	}
	floats := map[string]*float64{
		models.FeatureIncomeAnnum:            &app.IncomeAnnum,
		models.FeatureLoanAmount:             &app.LoanAmount,
		models.FeatureResidentialAssetsValue: &app.ResidentialAssetsValue,
		models.FeatureCommercialAssetsValue:  &app.CommercialAssetsValue,
		models.FeatureLuxuryAssetsValue:      &app.LuxuryAssetsValue,
		models.FeatureBankAssetValue:         &app.BankAssetValue,
	}

	for _, column := range RequiredColumns {
		raw, err := getValue(column)
		if err != nil {
			return app, err
		}

		switch {
		case column == models.FeatureEducation:
			app.Education = raw
		case column == models.FeatureSelfEmployed:
			app.SelfEmployed = raw
		case ints[column] != nil:
			n, err := parseInt(raw)
			if err != nil {
				return app, fmt.Errorf("invalid %s: %w", column, err)
			}
			*ints[column] = n
		default:
			f, err := parseFloat(raw)
			if err != nil {
				return app, fmt.Errorf("invalid %s: %w", column, err)
			}
			*floats[column] = f
		}
	}

	return app, nil
}

func normalizeColumn(col string) string {
	normalized := strings.ToLower(strings.TrimSpace(col))
	if alias, ok := ColumnAliases[normalized]; ok {
		return alias
	}
	return normalized
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// parseFloat parses a string to float64, handling common formats.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	// Remove commas and currency symbols
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

// parseInt parses a string to int, handling common formats.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	// Remove commas
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// Whole-number float strings such as "750.0" are accepted
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a whole number", s)
		}
		return int(f), nil
	}

	return strconv.Atoi(s)
}

// PredictionRecord is one output row of a predictions CSV.
type PredictionRecord struct {
	Line       int
	Prediction *models.Prediction
	Err        error
}

// PredictionColumns is the header of a predictions CSV.
var PredictionColumns = []string{"line", "prediction", "probability", "confidence", "error"}

// WritePredictionsCSV writes one row per record. Failed rows carry
// "Error" in the prediction and confidence columns and the message in error.
func WritePredictionsCSV(w io.Writer, records []PredictionRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(PredictionColumns); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{strconv.Itoa(rec.Line), "Error", "0", "Error", ""}
		if rec.Err != nil {
			row[4] = rec.Err.Error()
		} else if rec.Prediction != nil {
			row[1] = rec.Prediction.Label
			row[2] = strconv.FormatFloat(rec.Prediction.Probability, 'f', 4, 64)
			row[3] = string(rec.Prediction.Confidence)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) (*CSVValidationResult, error) {
	result := &CSVValidationResult{
		Valid:          false,
		RowCount:       0,
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result, nil
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result, nil
	}

	normalizedColumns := make(map[string]bool)
	for _, col := range header {
		normalizedColumns[normalizeColumn(col)] = true
		result.Columns = append(result.Columns, col)
	}

	for _, required := range RequiredColumns {
		if !normalizedColumns[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		result.RowCount++
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result, nil
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}

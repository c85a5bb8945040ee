// Package utils provides utility functions for the loan decision explainer.
package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount rounds v to whole units and groups thousands, e.g. 24,000,000.
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%d", int64(math.Round(v)))
}

// FormatRupees prefixes FormatAmount with the rupee sign.
func FormatRupees(v float64) string {
	return "₹" + FormatAmount(v)
}

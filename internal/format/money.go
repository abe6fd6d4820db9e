// Package format renders monetary values and duty rates for human-facing surfaces.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Money formats v as US dollars with thousands separators, e.g. "$2,000,000.00".
func Money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// Rate formats a duty fraction as a percentage, e.g. 0.025 as "2.5%".
func Rate(fraction float64) string {
	return printer.Sprintf("%.4g%%", fraction*100)
}

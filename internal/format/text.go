package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

// WriteAnalysis prints the ranked candidates of an analysis, best first.
func WriteAnalysis(w io.Writer, result *domain.AnalysisResult) {
	fmt.Fprintf(w, "Analysis %s\n", result.ID)
	fmt.Fprintf(w, "Product: %s (%s -> %s)\n", result.Description, result.Origin, result.Destination)
	if len(result.SearchTerms) > 0 {
		fmt.Fprintf(w, "Search terms: %s\n", strings.Join(result.SearchTerms, ", "))
	}
	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, "No candidate codes found.")
		return
	}
	fmt.Fprintln(w)
	for i, c := range result.Candidates {
		fmt.Fprintf(w, "%d. %s  %s\n", i+1, c.Code, c.Description)
		fmt.Fprintf(w, "   General: %s", valueOr(c.Rates.General, "N/A"))
		if c.Confidence != "" {
			fmt.Fprintf(w, "  Confidence: %s", c.Confidence)
		}
		if c.IsFallback {
			fmt.Fprint(w, "  (lookup unavailable)")
		}
		fmt.Fprintln(w)
		if c.ConfidenceReason != "" {
			fmt.Fprintf(w, "   %s\n", c.ConfidenceReason)
		}
	}
}

// WriteStrategies prints the duty exposure and every strategy with its estimated savings.
func WriteStrategies(w io.Writer, report *domain.StrategyReport) {
	fmt.Fprintf(w, "Code %s  General rate: %s\n", report.Code, report.GeneralRate)
	fmt.Fprintf(w, "Import value: %s  Duty rate: %s  Annual duty: %s\n",
		Money(report.ImportValue), Rate(report.DutyRate), Money(report.AnnualDuty))
	for i, s := range report.Strategies {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, s.Name)
		fmt.Fprintf(w, "   %s\n", s.Mechanism)
		for _, step := range s.Implementation {
			fmt.Fprintf(w, "   - %s\n", step)
		}
		fmt.Fprintf(w, "   Impact: %s\n", s.Impact)
		savings := Money(s.Savings)
		if s.SavingsNote != "" {
			savings += " (" + s.SavingsNote + ")"
		}
		fmt.Fprintf(w, "   Estimated savings: %s\n", savings)
	}
}

// WriteDocument prints a tariff document: record, rates, eligibility and explanation.
func WriteDocument(w io.Writer, doc *domain.TariffDocument) {
	rec := doc.Record
	fmt.Fprintf(w, "HTS %s  %s\n", rec.Code, rec.Description)
	if doc.ProductDescription != "" {
		fmt.Fprintf(w, "Product: %s\n", doc.ProductDescription)
	}
	fmt.Fprintf(w, "Trade lane: %s -> %s\n", countryLabel(doc.Origin), countryLabel(doc.Destination))
	fmt.Fprintf(w, "General rate: %s  Column 2: %s\n", valueOr(rec.Rates.General, "N/A"), valueOr(rec.Rates.Column2, "N/A"))
	if rec.Unit != "" {
		fmt.Fprintf(w, "Unit: %s\n", rec.Unit)
	}
	if len(rec.Rates.Special) > 0 {
		keys := make([]string, 0, len(rec.Rates.Special))
		for k := range rec.Rates.Special {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Special rates:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, rec.Rates.Special[k])
		}
	}

	if len(doc.Eligibility.Agreements) > 0 {
		fmt.Fprintln(w, "Eligible agreements:")
		for _, a := range doc.Eligibility.Agreements {
			fmt.Fprintf(w, "  %s: %s (%s)\n", a.Name, a.Rate, a.Requirements)
		}
	} else if doc.Eligibility.Details != "" {
		fmt.Fprintf(w, "Eligibility: %s\n", doc.Eligibility.Details)
	}
	for _, a := range doc.Agreements {
		fmt.Fprintf(w, "Agreement in force: %s (%s)\n", a.Name, a.Code)
	}

	if a := doc.Analysis; a != nil && a.Confidence != "" {
		fmt.Fprintf(w, "Confidence: %s", a.Confidence)
		if a.ConfidenceReason != "" {
			fmt.Fprintf(w, " - %s", a.ConfidenceReason)
		}
		fmt.Fprintln(w)
	}
	if doc.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n", doc.Explanation)
	}
	if doc.Strategies != nil {
		fmt.Fprintln(w)
		WriteStrategies(w, doc.Strategies)
	}
}

func countryLabel(c domain.Country) string {
	if c.Name == "" || c.Name == c.Code {
		return c.Code
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Code)
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

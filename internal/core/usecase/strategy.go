package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

const (
	DefaultImportValue = 2_000_000.0
	DefaultDutyRate    = 0.025
)

// StrategyComposer computes the duty-minimization menu for one classification.
type StrategyComposer struct {
	importValue float64
}

func NewStrategyComposer(importValue float64) *StrategyComposer {
	if importValue <= 0 {
		importValue = DefaultImportValue
	}
	return &StrategyComposer{importValue: importValue}
}

func (c *StrategyComposer) ImportValue() float64 {
	return c.importValue
}

// ParseDutyRate reads an ad valorem rate such as "2.5%" as a fraction.
// Anything unparseable, including "Free" and compound rates, yields DefaultDutyRate.
func ParseDutyRate(general string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(general, "%", ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultDutyRate
	}
	return v / 100
}

func (c *StrategyComposer) Compose(rec domain.CodeRecord) domain.StrategyReport {
	rate := ParseDutyRate(rec.Rates.General)
	duty := roundCents(c.importValue * rate)
	general := rec.Rates.General
	if strings.TrimSpace(general) == "" {
		general = "N/A"
	}

	return domain.StrategyReport{
		Code:        rec.Code,
		ImportValue: c.importValue,
		GeneralRate: general,
		DutyRate:    rate,
		AnnualDuty:  duty,
		Strategies: []domain.Strategy{
			{
				Kind:      domain.StrategyOriginShift,
				Name:      "USMCA Re-routing & Origin Shift",
				Mechanism: "Perform substantial transformation in Mexico or Canada so the goods qualify as USMCA originating.",
				Implementation: []string{
					"Map the bill of materials against the tariff shift rule for " + rec.Code,
					"Qualify a North American assembly or molding partner",
					"Maintain certificates of origin for every shipment",
				},
				Impact:  fmt.Sprintf("Eliminates the %s general duty on qualifying goods", general),
				Savings: duty,
			},
			{
				Kind:      domain.StrategyDrawback,
				Name:      "Duty Drawback (Substitution)",
				Mechanism: "Recover up to 99% of duties paid on imports when the same or substituted goods are exported.",
				Implementation: []string{
					"Identify export shipments of the same or commercially interchangeable goods",
					"Keep import and export records linked for at least three years",
					"File drawback claims through a licensed customs broker",
				},
				Impact:      "Refund of up to 99% of duties paid on exported volume",
				Savings:     roundCents(duty * 0.99),
				SavingsNote: "up to",
			},
			{
				Kind:      domain.StrategyFirstSale,
				Name:      "First-Sale Valuation",
				Mechanism: "Declare customs value on the price of the first sale in a multi-tier transaction instead of the price paid by the importer.",
				Implementation: []string{
					"Document the manufacturer to middleman sale",
					"Show the first sale was bona fide and destined for the United States",
					"Obtain the supplier's invoices to support the declared value",
				},
				Impact:  "Duty is assessed on a lower dutiable value",
				Savings: roundCents(duty * 0.10),
			},
			{
				Kind:      domain.StrategyDiversification,
				Name:      "Supplier Diversification",
				Mechanism: "Qualify suppliers in countries with preferential or free access to avoid future tariff increases.",
				Implementation: []string{
					"Survey suppliers in free trade agreement partner countries",
					"Run cost and lead time comparisons including duty",
					"Phase volume to qualified suppliers",
				},
				Impact:      "Protects against additional duties and country-specific tariffs",
				Savings:     duty,
				SavingsNote: "future",
			},
			{
				Kind:      domain.StrategyTariffEngineering,
				Name:      "Tariff Engineering",
				Mechanism: "Modify the product design or materials so it is classified under a lower-duty heading.",
				Implementation: []string{
					"Review headings adjacent to " + rec.Code + " with lower rates",
					"Evaluate material or configuration changes with engineering",
					"Request a binding ruling before changing production",
				},
				Impact:      fmt.Sprintf("From %s → 0 %%", general),
				Savings:     duty,
				SavingsNote: "if feasible",
			},
		},
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

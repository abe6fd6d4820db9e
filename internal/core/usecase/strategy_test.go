package usecase

import (
	"testing"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

func TestParseDutyRate(t *testing.T) {
	cases := map[string]float64{
		"2.5%":  0.025,
		" 10% ": 0.10,
		"0%":    0,
		"abc%":  DefaultDutyRate,
		"Free":  DefaultDutyRate,
		"":      DefaultDutyRate,
	}
	for in, want := range cases {
		if got := ParseDutyRate(in); got != want {
			t.Fatalf("ParseDutyRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComposeComputesSavingsFromBaselineDuty(t *testing.T) {
	report := NewStrategyComposer(0).Compose(domain.CodeRecord{
		Code:  "8708.10.30",
		Rates: domain.Rates{General: "2.5%"},
	})

	if report.ImportValue != DefaultImportValue {
		t.Fatalf("expected default import value, got %v", report.ImportValue)
	}
	if report.AnnualDuty != 50000 {
		t.Fatalf("expected annual duty 50000, got %v", report.AnnualDuty)
	}
	if len(report.Strategies) != 5 {
		t.Fatalf("expected 5 strategies, got %d", len(report.Strategies))
	}

	want := map[domain.StrategyKind]float64{
		domain.StrategyOriginShift:       50000,
		domain.StrategyDrawback:          49500,
		domain.StrategyFirstSale:         5000,
		domain.StrategyDiversification:   50000,
		domain.StrategyTariffEngineering: 50000,
	}
	for _, s := range report.Strategies {
		if s.Savings != want[s.Kind] {
			t.Fatalf("%s: expected savings %v, got %v", s.Kind, want[s.Kind], s.Savings)
		}
		if s.Mechanism == "" || len(s.Implementation) == 0 {
			t.Fatalf("%s: expected mechanism and implementation text", s.Kind)
		}
	}
}

func TestComposeUnparseableRateUsesDefault(t *testing.T) {
	report := NewStrategyComposer(2_000_000).Compose(domain.CodeRecord{Rates: domain.Rates{General: "abc%"}})
	if report.DutyRate != DefaultDutyRate || report.AnnualDuty != 50000 {
		t.Fatalf("expected default rate and 50000 duty, got %v / %v", report.DutyRate, report.AnnualDuty)
	}
}

func TestComposeUsesConfiguredImportValue(t *testing.T) {
	report := NewStrategyComposer(1_000_000).Compose(domain.CodeRecord{Rates: domain.Rates{General: "4%"}})
	if report.AnnualDuty != 40000 {
		t.Fatalf("expected 40000, got %v", report.AnnualDuty)
	}
	last := report.Strategies[len(report.Strategies)-1]
	if last.Impact != "From 4% → 0 %" {
		t.Fatalf("unexpected tariff engineering impact %q", last.Impact)
	}
}

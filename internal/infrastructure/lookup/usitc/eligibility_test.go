package usitc

import (
	"testing"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

func TestEvaluateEligibilitySurfacesOriginRate(t *testing.T) {
	rec := &domain.CodeRecord{
		Code:  "8708.10.30",
		Rates: domain.Rates{Special: map[string]string{"CA": "Free", "MX": "0%"}},
	}

	got := EvaluateEligibility(rec, "mx", "US")
	if len(got.Agreements) != 1 {
		t.Fatalf("expected one agreement, got %+v", got.Agreements)
	}
	if got.Agreements[0].Name != "USMCA" || got.Agreements[0].Rate != "0%" {
		t.Fatalf("expected USMCA with MX rate, got %+v", got.Agreements[0])
	}
	if got.Details != detailsEvaluated {
		t.Fatalf("unexpected details %q", got.Details)
	}
}

func TestEvaluateEligibilityAgreementKeyFallsBackToAgreementRate(t *testing.T) {
	rec := &domain.CodeRecord{Rates: domain.Rates{Special: map[string]string{"USMCA": "Free"}}}

	got := EvaluateEligibility(rec, "CA", "US")
	if len(got.Agreements) != 1 || got.Agreements[0].Rate != "Free" {
		t.Fatalf("unexpected agreements %+v", got.Agreements)
	}
}

func TestEvaluateEligibilityRequiresSpecialRateKey(t *testing.T) {
	rec := &domain.CodeRecord{Rates: domain.Rates{Special: map[string]string{"AU": "Free"}}}

	got := EvaluateEligibility(rec, "KR", "US")
	if len(got.Agreements) != 0 {
		t.Fatalf("expected no agreements, got %+v", got.Agreements)
	}
}

func TestEvaluateEligibilityOnlySupportsUS(t *testing.T) {
	rec := &domain.CodeRecord{Rates: domain.Rates{Special: map[string]string{"MX": "Free"}}}

	got := EvaluateEligibility(rec, "MX", "CA")
	if len(got.Agreements) != 0 || got.Details != detailsUnsupportedDestination {
		t.Fatalf("unexpected eligibility %+v", got)
	}
}

func TestEvaluateEligibilityMissingRecord(t *testing.T) {
	got := EvaluateEligibility(nil, "JP", "US")
	if got.Details != detailsCodeNotFound {
		t.Fatalf("unexpected details %q", got.Details)
	}
}

package usitc

import (
	"slices"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

const supportedDestination = "US"

type agreementRule struct {
	name         string
	origins      []string
	rateKeys     []string
	requirements string
	defaultRate  string
}

// eligibilityRules only covers imports into the US.
var eligibilityRules = []agreementRule{
	{
		name:         "USMCA",
		origins:      []string{"CA", "MX"},
		rateKeys:     []string{"CA", "MX", "USMCA"},
		requirements: "Must meet USMCA rules of origin",
		defaultRate:  "Free",
	},
	{
		name:         "US-KR FTA",
		origins:      []string{"KR"},
		rateKeys:     []string{"KR", "US-KR"},
		requirements: "Must meet KORUS rules of origin",
		defaultRate:  "Free",
	},
	{
		name:         "US-Japan Trade Agreement",
		origins:      []string{"JP"},
		rateKeys:     []string{"JP", "US-JP"},
		requirements: "Limited product coverage; verify the line is included in the agreement annex",
		defaultRate:  "Free",
	},
}

const (
	detailsUnsupportedDestination = "Only US destination supported in this version"
	detailsCodeNotFound           = "HTS code not found"
	detailsEvaluated              = "Based on country of origin and special rates"
)

// EvaluateEligibility checks a record's special rates against the agreement rule table.
func EvaluateEligibility(rec *domain.CodeRecord, origin, destination string) domain.Eligibility {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))

	out := domain.Eligibility{Agreements: []domain.AgreementEligibility{}}
	if destination != supportedDestination {
		out.Details = detailsUnsupportedDestination
		return out
	}
	if rec == nil {
		out.Details = detailsCodeNotFound
		return out
	}

	for _, rule := range eligibilityRules {
		if !slices.Contains(rule.origins, origin) {
			continue
		}
		rate, ok := rule.rate(rec.Rates.Special, origin)
		if !ok {
			continue
		}
		out.Agreements = append(out.Agreements, domain.AgreementEligibility{
			Name:         rule.name,
			Rate:         rate,
			Requirements: rule.requirements,
		})
	}
	out.Details = detailsEvaluated
	return out
}

// rate returns the preferential rate, looking at the origin's own key first.
func (r agreementRule) rate(special map[string]string, origin string) (string, bool) {
	keys := make([]string, 0, len(r.rateKeys)+1)
	keys = append(keys, origin)
	keys = append(keys, r.rateKeys...)

	present := false
	for _, key := range r.rateKeys {
		if _, ok := special[key]; ok {
			present = true
			break
		}
	}
	if !present {
		return "", false
	}
	for _, key := range keys {
		if v := strings.TrimSpace(special[key]); v != "" {
			return v, true
		}
	}
	return r.defaultRate, true
}

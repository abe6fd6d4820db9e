package usitc

import (
	"regexp"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

var (
	codeQueryPattern = regexp.MustCompile(`^\d{4}(\.\d{2})?`)
	codeLikePattern  = regexp.MustCompile(`\d{4}(\.\d{2})?`)
)

const (
	noMatchCode        = "0000.00.0000"
	noMatchDescription = "No matching HTS code found"
	noMatchInfo        = "Please try a different search term or consult with a customs expert"

	codeUnavailableDescription = "HTS code information not available"
	codeUnavailableInfo        = "Please verify this HTS code with official sources"
)

// IsCodeQuery reports whether query starts with a classification code (NNNN or NNNN.NN).
func IsCodeQuery(query string) bool {
	return codeQueryPattern.MatchString(strings.TrimSpace(query))
}

func cleanCode(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), ":;,.")
}

// FallbackRecord synthesizes the placeholder returned when a lookup cannot be completed.
func FallbackRecord(query string) domain.CodeRecord {
	rec := domain.CodeRecord{
		Code:           noMatchCode,
		Description:    noMatchDescription,
		AdditionalInfo: noMatchInfo,
		Rates:          domain.Rates{General: notAvailable, Column2: notAvailable},
		IsFallback:     true,
	}
	if codeLikePattern.MatchString(query) {
		rec.Code = strings.ToLower(strings.TrimSpace(query))
		rec.Description = codeUnavailableDescription
		rec.AdditionalInfo = codeUnavailableInfo
	}
	return rec
}

// Degrade applies the degrade-to-available policy: a failed or empty lookup yields
// exactly one fallback record, a successful one is returned unchanged.
func Degrade(query string, records []domain.CodeRecord, err error) []domain.CodeRecord {
	if err != nil || len(records) == 0 {
		return []domain.CodeRecord{FallbackRecord(query)}
	}
	return records
}

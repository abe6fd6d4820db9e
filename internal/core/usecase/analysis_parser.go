package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

type analysisSection int

const (
	sectionNone analysisSection = iota
	sectionMaterials
	sectionFunction
	sectionIndustryTerms
	sectionTerminology
	sectionCandidateCodes
	sectionSearchTerms
)

// sectionLabels maps normalized header labels to analysis sections.
var sectionLabels = map[string]analysisSection{
	"MATERIAL":            sectionMaterials,
	"MATERIALS":           sectionMaterials,
	"FUNCTION":            sectionFunction,
	"PRIMARY FUNCTION":    sectionFunction,
	"INDUSTRY":            sectionIndustryTerms,
	"INDUSTRY TERM":       sectionIndustryTerms,
	"INDUSTRY TERMS":      sectionIndustryTerms,
	"TERMINOLOGY":         sectionTerminology,
	"HTS TERMINOLOGY":     sectionTerminology,
	"FORMAL TERMINOLOGY":  sectionTerminology,
	"CODES":               sectionCandidateCodes,
	"HTS CODE":            sectionCandidateCodes,
	"HTS CODES":           sectionCandidateCodes,
	"CANDIDATE CODES":     sectionCandidateCodes,
	"POTENTIAL HTS CODES": sectionCandidateCodes,
	"SEARCH":              sectionSearchTerms,
	"SEARCH TERM":         sectionSearchTerms,
	"SEARCH TERMS":        sectionSearchTerms,
}

var (
	headerPattern   = regexp.MustCompile(`^(?:\d+\s*[.)]\s*)?([A-Za-z][A-Za-z _/&-]*?)\s*(?:\([^)]*\))?\s*(?:(:)\s*(.*))?$`)
	numberedItem    = regexp.MustCompile(`^\d+\s*[.)]\s+(.+)$`)
	quotedFragments = regexp.MustCompile(`"([^"]+)"`)

	errUnusableAnalysis = errors.New("model response has no usable analysis fields")
)

// sectionKeywords resolve decorated headers such as "Recommended search terms:".
// Earlier entries win, so "INDUSTRY-SPECIFIC TERMINOLOGY" is industry terms.
var sectionKeywords = []struct {
	prefix  string
	section analysisSection
}{
	{"MATERIAL", sectionMaterials},
	{"FUNCTION", sectionFunction},
	{"INDUSTRY", sectionIndustryTerms},
	{"SEARCH", sectionSearchTerms},
	{"CODE", sectionCandidateCodes},
	{"TERMINOLOGY", sectionTerminology},
}

const maxKeywordHeaderWords = 4

func normalizeLabel(label string) string {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	normalized = strings.NewReplacer("_", " ", "-", " ", "/", " ", "&", " ").Replace(normalized)
	return strings.Join(strings.Fields(normalized), " ")
}

func lookupSection(label string) (analysisSection, bool) {
	section, ok := sectionLabels[normalizeLabel(label)]
	return section, ok
}

// lookupSectionKeyword matches a short label when one of its words starts with a section keyword.
func lookupSectionKeyword(label string) (analysisSection, bool) {
	words := strings.Fields(normalizeLabel(label))
	if len(words) == 0 || len(words) > maxKeywordHeaderWords {
		return sectionNone, false
	}
	for _, kw := range sectionKeywords {
		for _, word := range words {
			if strings.HasPrefix(word, kw.prefix) {
				return kw.section, true
			}
		}
	}
	return sectionNone, false
}

// matchHeader reports the section a line opens and the content after its colon.
// Bare lines must be an exact label; lines with a colon may use a decorated label.
func matchHeader(line string) (analysisSection, string, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return sectionNone, "", false
	}
	label, hasColon, rest := m[1], m[2] != "", strings.TrimSpace(m[3])
	if section, ok := lookupSection(label); ok {
		return section, rest, true
	}
	if hasColon {
		if section, ok := lookupSectionKeyword(label); ok {
			return section, rest, true
		}
	}
	return sectionNone, "", false
}

// ParseStructuredAnalysis reads a free-text model response made of labeled sections
// ("1. MATERIALS:", "Function:", "**SEARCH_TERMS**", "6. Recommended search terms:" ...)
// into a ProductAnalysis.
// Lines before the first recognized header are ignored.
func ParseStructuredAnalysis(text string) domain.ProductAnalysis {
	var (
		out         domain.ProductAnalysis
		current     = sectionNone
		function    []string
		terminology []string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := normalizeAnalysisLine(raw)
		if line == "" {
			continue
		}

		if section, rest, ok := matchHeader(line); ok {
			current = section
			if rest == "" {
				continue
			}
			line = rest
		}

		switch current {
		case sectionFunction:
			function = append(function, trimQuotes(line))
		case sectionTerminology:
			terminology = append(terminology, trimQuotes(line))
		case sectionMaterials:
			out.Materials = append(out.Materials, splitAnalysisItems(line)...)
		case sectionIndustryTerms:
			out.IndustryTerms = append(out.IndustryTerms, splitAnalysisItems(line)...)
		case sectionCandidateCodes:
			out.CandidateCodes = append(out.CandidateCodes, splitAnalysisItems(line)...)
		case sectionSearchTerms:
			out.SearchTerms = append(out.SearchTerms, splitAnalysisItems(line)...)
		}
	}

	out.Function = strings.TrimSpace(strings.Join(function, " "))
	out.HTSTerminology = strings.TrimSpace(strings.Join(terminology, " "))
	return out
}

func normalizeAnalysisLine(raw string) string {
	line := strings.TrimSpace(raw)
	line = strings.ReplaceAll(line, "**", "")
	line = strings.TrimLeft(line, "#")
	return strings.TrimSpace(line)
}

// splitAnalysisItems extracts list items from one content line.
func splitAnalysisItems(line string) []string {
	if rest, ok := cutBullet(line); ok {
		return nonEmpty([]string{trimQuotes(rest)})
	}
	if m := numberedItem.FindStringSubmatch(line); m != nil {
		return nonEmpty([]string{trimQuotes(m[1])})
	}
	if quoted := quotedFragments.FindAllStringSubmatch(line, -1); len(quoted) > 0 {
		items := make([]string, 0, len(quoted))
		for _, q := range quoted {
			items = append(items, q[1])
		}
		return nonEmpty(items)
	}
	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = trimQuotes(parts[i])
		}
		return nonEmpty(parts)
	}
	return nonEmpty([]string{trimQuotes(line)})
}

func cutBullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• ", "-", "•"} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func trimQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
}

func nonEmpty(items []string) []string {
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func analysisIsEmpty(a domain.ProductAnalysis) bool {
	return len(a.Materials) == 0 &&
		a.Function == "" &&
		len(a.IndustryTerms) == 0 &&
		a.HTSTerminology == "" &&
		len(a.CandidateCodes) == 0 &&
		len(a.SearchTerms) == 0
}

// decodeAnalysisJSON reads a JSON analysis payload, repairing common model formatting damage.
// Keys are matched case-insensitively against the same labels as the text parser.
func decodeAnalysisJSON(raw string) (domain.ProductAnalysis, error) {
	object := extractJSONObject(raw)
	if !strings.Contains(object, "{") {
		return domain.ProductAnalysis{}, errUnusableAnalysis
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(object)
		if repairErr != nil {
			return domain.ProductAnalysis{}, fmt.Errorf("repair analysis json: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			return domain.ProductAnalysis{}, fmt.Errorf("decode analysis json: %w", err)
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out domain.ProductAnalysis
	for _, key := range keys {
		section, ok := lookupSection(key)
		if !ok {
			continue
		}
		value := payload[key]
		switch section {
		case sectionFunction:
			out.Function = strings.TrimSpace(strings.Join(append([]string{out.Function}, jsonScalar(value)), " "))
		case sectionTerminology:
			out.HTSTerminology = strings.TrimSpace(strings.Join(append([]string{out.HTSTerminology}, jsonScalar(value)), " "))
		case sectionMaterials:
			out.Materials = append(out.Materials, jsonList(value)...)
		case sectionIndustryTerms:
			out.IndustryTerms = append(out.IndustryTerms, jsonList(value)...)
		case sectionCandidateCodes:
			out.CandidateCodes = append(out.CandidateCodes, jsonList(value)...)
		case sectionSearchTerms:
			out.SearchTerms = append(out.SearchTerms, jsonList(value)...)
		}
	}

	if analysisIsEmpty(out) {
		return out, errUnusableAnalysis
	}
	return out, nil
}

func jsonScalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			parts = append(parts, jsonScalar(el))
		}
		return strings.TrimSpace(strings.Join(nonEmpty(parts), " "))
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func jsonList(v any) []string {
	switch t := v.(type) {
	case string:
		return splitAnalysisItems(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, el := range t {
			items = append(items, trimQuotes(jsonScalar(el)))
		}
		return nonEmpty(items)
	case nil:
		return nil
	default:
		return nonEmpty([]string{fmt.Sprint(t)})
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

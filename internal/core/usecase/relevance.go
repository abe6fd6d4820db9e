package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

// KeywordBonus rewards candidates for a product keyword. It applies when Trigger occurs
// in the product description and the candidate description contains one of
// DescriptionTerms or the candidate code starts with one of CodePrefixes.
type KeywordBonus struct {
	Trigger          string
	DescriptionTerms []string
	CodePrefixes     []string
	Points           int
}

type RelevanceWeights struct {
	TermMatch    int
	CodeMatch    int
	WordMatch    int
	OriginalTerm int
	MinScore     int
	// ExcludedPrefixes drop candidates before scoring.
	ExcludedPrefixes []string
	// KeywordBonuses are evaluated in order; only the first triggered rule is applied.
	KeywordBonuses []KeywordBonus
}

func DefaultRelevanceWeights() RelevanceWeights {
	return RelevanceWeights{
		TermMatch:        3,
		CodeMatch:        5,
		WordMatch:        1,
		OriginalTerm:     2,
		MinScore:         1,
		ExcludedPrefixes: []string{"0102"},
		KeywordBonuses: []KeywordBonus{
			{Trigger: "bumper", DescriptionTerms: []string{"bumper"}, CodePrefixes: []string{"8708.10"}, Points: 5},
			{Trigger: "fastener", DescriptionTerms: []string{"fastener", "screw", "bolt"}, Points: 4},
			{Trigger: "plastic", DescriptionTerms: []string{"plastic"}, Points: 3},
		},
	}
}

var relevanceStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {}, "with": {}, "without": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "from": {}, "by": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
}

const contentWordCutset = ",.;:()[]{}\"'"

// filterByRelevance scores candidates against the product description and search terms
// and keeps those reaching MinScore. When nothing survives, the input is returned
// unfiltered and unscored so a non-empty lookup never yields an empty ranking.
func filterByRelevance(description string, terms []string, candidates []domain.Candidate, w RelevanceWeights) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	descLower := strings.ToLower(description)
	termsLower := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			termsLower = append(termsLower, t)
		}
	}
	words := contentWords(descLower)
	bonus := triggeredBonus(descLower, w.KeywordBonuses)

	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if hasAnyPrefix(c.Code, w.ExcludedPrefixes) {
			continue
		}
		score := relevanceScore(c, descLower, termsLower, words, bonus, w)
		if score < w.MinScore {
			continue
		}
		c.RelevanceScore = score
		c.Scored = true
		kept = append(kept, c)
	}

	if len(kept) == 0 {
		out := make([]domain.Candidate, len(candidates))
		copy(out, candidates)
		return out
	}
	return kept
}

func relevanceScore(c domain.Candidate, descLower string, termsLower, words []string, bonus *KeywordBonus, w RelevanceWeights) int {
	candDesc := strings.ToLower(c.Description)
	score := 0

	for _, term := range termsLower {
		if !strings.Contains(candDesc, term) {
			continue
		}
		score += w.TermMatch
		if isDottedNumber(term) && strings.Contains(c.Code, term) {
			score += w.CodeMatch
		}
		break
	}

	for _, word := range words {
		if strings.Contains(candDesc, word) {
			score += w.WordMatch
		}
	}

	for _, source := range c.SourceTerms {
		if strings.ToLower(source) == descLower {
			score += w.OriginalTerm
			break
		}
	}

	if bonus != nil && bonus.matches(c, candDesc) {
		score += bonus.Points
	}
	return score
}

func (b *KeywordBonus) matches(c domain.Candidate, candDesc string) bool {
	for _, term := range b.DescriptionTerms {
		if strings.Contains(candDesc, term) {
			return true
		}
	}
	return hasAnyPrefix(c.Code, b.CodePrefixes)
}

func triggeredBonus(descLower string, bonuses []KeywordBonus) *KeywordBonus {
	for i := range bonuses {
		if bonuses[i].Trigger != "" && strings.Contains(descLower, bonuses[i].Trigger) {
			return &bonuses[i]
		}
	}
	return nil
}

// contentWords returns the distinct non-stopword words of a lower-cased description.
func contentWords(descLower string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, raw := range strings.Fields(descLower) {
		word := strings.Trim(raw, contentWordCutset)
		if utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, stop := relevanceStopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func isDottedNumber(term string) bool {
	digits := strings.ReplaceAll(term, ".", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

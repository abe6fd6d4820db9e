package usecase

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

const defaultAssessmentReason = "Default assessment."

var (
	confidenceOptions = ports.GenerateOptions{Temperature: 0.3, MaxTokens: 250}

	confidenceLine  = regexp.MustCompile(`^\s*(\d+)\s*[.):]\s*(.*)$`)
	confidenceLevel = regexp.MustCompile(`(?i)\b(high|medium|low)\b`)
)

type confidenceLabel struct {
	level  domain.Confidence
	reason string
}

// assessConfidence labels every candidate High/Medium/Low. Only the first topN candidates
// are sent to the model; the rest, and any the model skipped, default to Medium.
func (r *CandidateRanker) assessConfidence(ctx context.Context, req RankRequest, candidates []domain.Candidate) []domain.Candidate {
	out := slices.Clone(candidates)
	if len(out) == 0 {
		return out
	}
	if r.generator == nil {
		for i := range out {
			out[i].Confidence = domain.ConfidenceMedium
		}
		return out
	}

	top := min(len(out), r.confidenceTopN)
	raw, err := r.generator.GenerateText(ctx, buildConfidencePrompt(req, out[:top]), confidenceOptions)
	if err != nil {
		r.logger.Warn("confidence_scoring_degraded", "description", req.Description, "error", err)
		if r.observer != nil {
			r.observer.ObserveGeneratorFailure("confidence")
		}
		for i := range out {
			out[i].Confidence = domain.ConfidenceMedium
		}
		return out
	}

	labels := parseConfidenceResponse(raw, top)
	for i := range out {
		if label, ok := labels[i]; ok {
			out[i].Confidence = label.level
			out[i].ConfidenceReason = label.reason
			continue
		}
		out[i].Confidence = domain.ConfidenceMedium
		out[i].ConfidenceReason = defaultAssessmentReason
	}
	return out
}

// parseConfidenceResponse maps "N. Level: reason" lines (also "N)" and "N:") onto zero-based candidate indexes.
// Lines without a number in 1..n or without a level are ignored.
func parseConfidenceResponse(text string, n int) map[int]confidenceLabel {
	labels := make(map[int]confidenceLabel)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.ReplaceAll(strings.TrimSpace(raw), "**", "")
		m := confidenceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var index int
		if _, err := fmt.Sscanf(m[1], "%d", &index); err != nil || index < 1 || index > n {
			continue
		}
		rest := m[2]
		levelMatch := confidenceLevel.FindStringSubmatchIndex(rest)
		if levelMatch == nil {
			continue
		}
		level := normalizeConfidence(rest[levelMatch[2]:levelMatch[3]])

		reason := ""
		if _, after, found := strings.Cut(rest, ":"); found {
			reason = after
		} else {
			reason = rest[levelMatch[1]:]
		}
		labels[index-1] = confidenceLabel{
			level:  level,
			reason: strings.Trim(strings.TrimSpace(reason), "-– "),
		}
	}
	return labels
}

func normalizeConfidence(s string) domain.Confidence {
	switch strings.ToLower(s) {
	case "high":
		return domain.ConfidenceHigh
	case "low":
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceMedium
	}
}

func buildConfidencePrompt(req RankRequest, candidates []domain.Candidate) string {
	var b strings.Builder
	b.WriteString("Assess how well each HTS code matches the product.\n\n")
	fmt.Fprintf(&b, "Product description: %s\n", strings.TrimSpace(req.Description))
	if req.Origin != "" && req.Destination != "" {
		fmt.Fprintf(&b, "Trade lane: %s to %s\n", req.Origin, req.Destination)
	}
	b.WriteString("\nCandidate HTS codes:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, c.Code, c.Description)
	}
	b.WriteString("\nFor each candidate answer on its own line in the format:\n")
	b.WriteString("N. [High/Medium/Low]: short reason\n")
	return b.String()
}

// enrichConfidence augments the confidence reason with literal evidence from the analysis.
func enrichConfidence(c domain.Candidate, description string, analysis *domain.ProductAnalysis) domain.Candidate {
	candDesc := strings.ToLower(c.Description)

	var materialMatches []string
	for _, material := range analysis.Materials {
		m := strings.TrimSpace(material)
		if m != "" && strings.Contains(candDesc, strings.ToLower(m)) {
			materialMatches = append(materialMatches, m)
		}
	}
	function := strings.TrimSpace(analysis.Function)
	functionMatch := function != "" && strings.Contains(candDesc, strings.ToLower(function))

	var parts []string
	if len(materialMatches) > 0 {
		parts = append(parts, "Material match: "+strings.Join(materialMatches, ", "))
	}
	if functionMatch {
		parts = append(parts, "Function match: "+function)
	}
	if len(c.SourceTerms) > 0 && c.SourceTerms[0] != description {
		parts = append(parts, fmt.Sprintf("Found via search term: '%s'", c.SourceTerms[0]))
	}
	if c.ConfidenceReason != "" && !slices.Contains(parts, c.ConfidenceReason) {
		parts = append(parts, c.ConfidenceReason)
	}
	if len(parts) > 0 {
		c.ConfidenceReason = strings.Join(parts, " | ")
	}

	c.Evidence = &domain.MatchEvidence{
		Materials:       slices.Clone(analysis.Materials),
		Function:        analysis.Function,
		IndustryTerms:   slices.Clone(analysis.IndustryTerms),
		MaterialMatches: materialMatches,
		FunctionMatch:   functionMatch,
	}
	return c
}

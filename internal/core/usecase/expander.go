package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

var expansionOptions = ports.GenerateOptions{Temperature: 0.3, MaxTokens: 500}

// QueryExpander turns a product description into lookup search terms.
type QueryExpander struct {
	generator ports.TextGenerator
	analyses  ports.Cache[domain.ProductAnalysis]
	terms     ports.Cache[[]string]
	observer  ports.PipelineObserver
	logger    *slog.Logger
}

type ExpanderDeps struct {
	// Generator is optional; without it every description expands to itself.
	Generator ports.TextGenerator
	Analyses  ports.Cache[domain.ProductAnalysis]
	Terms     ports.Cache[[]string]
	Observer  ports.PipelineObserver
	Logger    *slog.Logger
}

func NewQueryExpander(deps ExpanderDeps) *QueryExpander {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryExpander{
		generator: deps.Generator,
		analyses:  deps.Analyses,
		terms:     deps.Terms,
		observer:  deps.Observer,
		logger:    logger,
	}
}

// Expand returns the ordered search terms for description. The description itself
// is always part of the result; model failures degrade to [description].
func (e *QueryExpander) Expand(ctx context.Context, description string) []string {
	if e.terms != nil {
		if cached, ok := e.terms.Get(description); ok {
			return slices.Clone(cached)
		}
	}
	if e.generator == nil {
		e.observeExpansion(1, false)
		return []string{description}
	}

	analysis, err := e.analyze(ctx, description)
	if err != nil {
		e.logger.Warn("query_expansion_degraded", "description", description, "error", err)
		if e.observer != nil {
			e.observer.ObserveGeneratorFailure("expand")
		}
		e.observeExpansion(1, false)
		return []string{description}
	}

	terms := BuildSearchTerms(description, analysis)
	if e.analyses != nil {
		e.analyses.Add(description, analysis)
	}
	if e.terms != nil {
		e.terms.Add(description, slices.Clone(terms))
	}
	e.observeExpansion(len(terms), true)
	return terms
}

// Analysis returns the cached model analysis for description, if one was produced.
func (e *QueryExpander) Analysis(description string) (*domain.ProductAnalysis, bool) {
	if e.analyses == nil {
		return nil, false
	}
	analysis, ok := e.analyses.Get(description)
	if !ok {
		return nil, false
	}
	return &analysis, true
}

func (e *QueryExpander) analyze(ctx context.Context, description string) (domain.ProductAnalysis, error) {
	prompt := buildExpansionPrompt(description, e.generator.SupportsJSON())

	if e.generator.SupportsJSON() {
		raw, err := e.generator.GenerateJSON(ctx, prompt, expansionOptions)
		if err != nil {
			return domain.ProductAnalysis{}, fmt.Errorf("generate analysis: %w", err)
		}
		analysis, err := decodeAnalysisJSON(raw)
		if err == nil {
			return analysis, nil
		}
		if parsed := ParseStructuredAnalysis(raw); !analysisIsEmpty(parsed) {
			return parsed, nil
		}
		return domain.ProductAnalysis{}, err
	}

	raw, err := e.generator.GenerateText(ctx, prompt, expansionOptions)
	if err != nil {
		return domain.ProductAnalysis{}, fmt.Errorf("generate analysis: %w", err)
	}
	analysis := ParseStructuredAnalysis(raw)
	if analysisIsEmpty(analysis) {
		return domain.ProductAnalysis{}, errUnusableAnalysis
	}
	return analysis, nil
}

func (e *QueryExpander) observeExpansion(terms int, fromModel bool) {
	if e.observer != nil {
		e.observer.ObserveExpansion(terms, fromModel)
	}
}

// BuildSearchTerms combines the model's search terms, the original description and the
// numeric candidate codes into the ordered term list.
func BuildSearchTerms(description string, analysis domain.ProductAnalysis) []string {
	terms := make([]string, 0, len(analysis.SearchTerms)+len(analysis.CandidateCodes)+1)
	terms = append(terms, analysis.SearchTerms...)
	if len(terms) == 0 {
		terms = append(terms, description)
	}
	if !slices.Contains(terms, description) {
		terms = append(terms, description)
	}

	for _, code := range analysis.CandidateCodes {
		clean := cleanCandidateCode(code)
		if clean == "" || !strings.Contains(clean, ".") || !strings.ContainsFunc(clean, unicode.IsDigit) {
			continue
		}
		if !slices.Contains(terms, clean) {
			terms = append(terms, clean)
		}
	}
	return terms
}

func cleanCandidateCode(code string) string {
	code = strings.TrimSpace(code)
	if head, _, found := strings.Cut(code, " "); found {
		code = head
	}
	return strings.TrimRight(strings.TrimSpace(code), ":;,.")
}

func buildExpansionPrompt(description string, jsonOutput bool) string {
	var b strings.Builder
	b.WriteString("Analyze this product for classification in the Harmonized Tariff Schedule of the United States (HTS).\n\n")
	b.WriteString("Product description: ")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n\nProvide:\n")
	b.WriteString("1. MATERIALS: the main materials the product is made of\n")
	b.WriteString("2. FUNCTION: the primary function or use of the product\n")
	b.WriteString("3. INDUSTRY_TERMS: industry-specific names for this product\n")
	b.WriteString("4. HTS_TERMINOLOGY: how the HTS would formally describe this product\n")
	b.WriteString("5. HTS_CODES: up to 5 likely HTS codes (format NNNN.NN.NN)\n")
	b.WriteString("6. SEARCH_TERMS: 3-5 short phrases to search the HTS database\n\n")
	if jsonOutput {
		b.WriteString(`Respond with a JSON object with the keys "MATERIALS", "FUNCTION", "INDUSTRY_TERMS", "HTS_TERMINOLOGY", "HTS_CODES" and "SEARCH_TERMS". `)
		b.WriteString("FUNCTION and HTS_TERMINOLOGY are strings, the other keys are arrays of strings.")
	} else {
		b.WriteString("Format the answer with one labeled section per item and list entries as \"- \" bullets.")
	}
	return b.String()
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

const noDescriptionAvailable = "No description available"

var (
	explanationOptions = ports.GenerateOptions{Temperature: 0.5, MaxTokens: 350}
	countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

type AnalyzeDeps struct {
	Lookup       ports.TariffLookup
	Expander     *QueryExpander
	Ranker       *CandidateRanker
	Composer     *StrategyComposer
	Repository   ports.AnalysisRepository
	Reference    ports.ReferenceData
	Generator    ports.TextGenerator
	Explanations ports.Cache[string]
	Logger       *slog.Logger
}

// AnalyzeUseCase is the caller-facing classification pipeline.
type AnalyzeUseCase struct {
	lookup       ports.TariffLookup
	expander     *QueryExpander
	ranker       *CandidateRanker
	composer     *StrategyComposer
	repo         ports.AnalysisRepository
	reference    ports.ReferenceData
	generator    ports.TextGenerator
	explanations ports.Cache[string]
	logger       *slog.Logger
	now          func() time.Time
}

func NewAnalyzeUseCase(deps AnalyzeDeps) *AnalyzeUseCase {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	composer := deps.Composer
	if composer == nil {
		composer = NewStrategyComposer(DefaultImportValue)
	}
	return &AnalyzeUseCase{
		lookup:       deps.Lookup,
		expander:     deps.Expander,
		ranker:       deps.Ranker,
		composer:     composer,
		repo:         deps.Repository,
		reference:    deps.Reference,
		generator:    deps.Generator,
		explanations: deps.Explanations,
		logger:       logger,
		now:          time.Now,
	}
}

func (uc *AnalyzeUseCase) AnalyzeProduct(ctx context.Context, description, origin, destination string) (*domain.AnalysisResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze product", fmt.Errorf("description is required"))
	}
	origin, destination, err := normalizeLane(origin, destination)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze product", err)
	}

	terms := uc.expander.Expand(ctx, description)
	analysis, _ := uc.expander.Analysis(description)
	candidates := uc.ranker.Rank(ctx, RankRequest{
		Description: description,
		Origin:      origin,
		Destination: destination,
		Terms:       terms,
		Analysis:    analysis,
	})

	result := &domain.AnalysisResult{
		ID:          uuid.NewString(),
		Description: description,
		Origin:      origin,
		Destination: destination,
		SearchTerms: terms,
		Candidates:  candidates,
		Analysis:    analysis,
		CreatedAt:   uc.now().UTC(),
	}

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, result); err != nil {
			uc.logger.Warn("analysis_save_failed", "analysis_id", result.ID, "error", err)
		}
	}
	return result, nil
}

func (uc *AnalyzeUseCase) GetAnalysis(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get analysis", fmt.Errorf("analysis id is required"))
	}
	if uc.repo == nil {
		return nil, domain.WrapError(domain.ErrAnalysisNotFound, "get analysis", fmt.Errorf("analysis %s", id))
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *AnalyzeUseCase) TariffDocument(ctx context.Context, description, code, origin, destination string) (*domain.TariffDocument, error) {
	return uc.tariffDocument(ctx, description, code, origin, destination, nil)
}

// TariffDocumentForAnalysis builds the document for one candidate of a stored analysis,
// carrying over its confidence assessment.
func (uc *AnalyzeUseCase) TariffDocumentForAnalysis(ctx context.Context, analysisID, code string) (*domain.TariffDocument, error) {
	result, err := uc.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	var selected *domain.Candidate
	for i := range result.Candidates {
		if result.Candidates[i].Code == strings.TrimSpace(code) {
			selected = &result.Candidates[i]
			break
		}
	}
	return uc.tariffDocument(ctx, result.Description, code, result.Origin, result.Destination, selected)
}

func (uc *AnalyzeUseCase) tariffDocument(ctx context.Context, description, code, origin, destination string, selected *domain.Candidate) (*domain.TariffDocument, error) {
	description = strings.TrimSpace(description)
	code = strings.TrimSpace(code)
	if description == "" || code == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "tariff document", fmt.Errorf("description and code are required"))
	}
	origin, destination, err := normalizeLane(origin, destination)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "tariff document", err)
	}

	record := uc.lookup.Details(ctx, code)
	if record == nil {
		record = &domain.CodeRecord{
			Code:        code,
			Description: noDescriptionAvailable,
			Rates:       domain.Rates{General: "N/A", Column2: "N/A"},
		}
	}
	eligibility := uc.lookup.Eligibility(ctx, code, origin, destination)
	strategies := uc.composer.Compose(*record)

	doc := &domain.TariffDocument{
		ProductDescription: description,
		Record:             *record,
		Origin:             uc.country(origin),
		Destination:        uc.country(destination),
		Eligibility:        eligibility,
		Explanation:        uc.explain(ctx, description, *record, origin, destination, eligibility),
		Strategies:         &strategies,
	}
	if uc.reference != nil {
		doc.Agreements = uc.reference.AgreementsFor(origin, destination)
	}

	if analysis, ok := uc.expander.Analysis(description); ok {
		doc.Analysis = &domain.ClassificationAnalysis{
			Materials:      analysis.Materials,
			Function:       analysis.Function,
			IndustryTerms:  analysis.IndustryTerms,
			HTSTerminology: analysis.HTSTerminology,
		}
	}
	if selected != nil {
		if doc.Analysis == nil {
			doc.Analysis = &domain.ClassificationAnalysis{}
		}
		doc.Analysis.Confidence = selected.Confidence
		doc.Analysis.ConfidenceReason = selected.ConfidenceReason
		doc.Analysis.Evidence = selected.Evidence
	}
	return doc, nil
}

func (uc *AnalyzeUseCase) CodeDetails(ctx context.Context, code string) (*domain.CodeRecord, error) {
	record := uc.lookup.Details(ctx, code)
	if record == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "code details", fmt.Errorf("code is required"))
	}
	return record, nil
}

func (uc *AnalyzeUseCase) Strategies(ctx context.Context, code string) (*domain.StrategyReport, error) {
	record, err := uc.CodeDetails(ctx, code)
	if err != nil {
		return nil, err
	}
	return uc.StrategiesFor(*record), nil
}

func (uc *AnalyzeUseCase) StrategiesFor(rec domain.CodeRecord) *domain.StrategyReport {
	report := uc.composer.Compose(rec)
	return &report
}

// explain returns an empty explanation without a generator and a fixed summary when
// the generator fails.
func (uc *AnalyzeUseCase) explain(ctx context.Context, description string, rec domain.CodeRecord, origin, destination string, eligibility domain.Eligibility) string {
	if uc.generator == nil {
		return ""
	}
	key := strings.Join([]string{rec.Code, origin, destination, description}, "|")
	if uc.explanations != nil {
		if cached, ok := uc.explanations.Get(key); ok {
			return cached
		}
	}

	prompt := buildExplanationPrompt(description, rec, uc.country(origin), uc.country(destination), eligibility)
	text, err := uc.generator.GenerateText(ctx, prompt, explanationOptions)
	if err != nil || strings.TrimSpace(text) == "" {
		uc.logger.Warn("tariff_explanation_degraded", "code", rec.Code, "error", err)
		return fallbackExplanation(description, rec)
	}
	text = strings.TrimSpace(text)
	if uc.explanations != nil {
		uc.explanations.Add(key, text)
	}
	return text
}

func fallbackExplanation(description string, rec domain.CodeRecord) string {
	return fmt.Sprintf(
		"This product (%s) is classified under HTS code %s. The general duty rate is %s. Check with a customs broker for specific details.",
		description, rec.Code, rec.Rates.General,
	)
}

func buildExplanationPrompt(description string, rec domain.CodeRecord, origin, destination domain.Country, eligibility domain.Eligibility) string {
	var b strings.Builder
	b.WriteString("Explain in plain language, in under 250 words, the tariff treatment of this import.\n\n")
	fmt.Fprintf(&b, "Product: %s\n", description)
	fmt.Fprintf(&b, "HTS code: %s\n", rec.Code)
	fmt.Fprintf(&b, "HTS description: %s\n", rec.Description)
	fmt.Fprintf(&b, "General duty rate: %s\n", rec.Rates.General)
	if len(rec.Rates.Special) > 0 {
		pairs := make([]string, 0, len(rec.Rates.Special))
		for _, k := range sortedKeys(rec.Rates.Special) {
			pairs = append(pairs, k+": "+rec.Rates.Special[k])
		}
		fmt.Fprintf(&b, "Special rates: %s\n", strings.Join(pairs, ", "))
	}
	fmt.Fprintf(&b, "Origin: %s\nDestination: %s\n", origin.Name, destination.Name)
	if len(eligibility.Agreements) > 0 {
		names := make([]string, 0, len(eligibility.Agreements))
		for _, a := range eligibility.Agreements {
			names = append(names, fmt.Sprintf("%s (%s)", a.Name, a.Rate))
		}
		fmt.Fprintf(&b, "Eligible trade agreements: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\nCover what the code covers, the applicable duty, any trade agreement benefit and one practical compliance tip.")
	return b.String()
}

func (uc *AnalyzeUseCase) country(code string) domain.Country {
	c := domain.Country{Code: code, Name: code}
	if uc.reference != nil {
		if name := uc.reference.CountryName(code); name != "" {
			c.Name = name
		}
	}
	return c
}

func normalizeLane(origin, destination string) (string, string, error) {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))
	if !countryCodePattern.MatchString(origin) {
		return "", "", fmt.Errorf("origin must be a two-letter country code, got %q", origin)
	}
	if !countryCodePattern.MatchString(destination) {
		return "", "", fmt.Errorf("destination must be a two-letter country code, got %q", destination)
	}
	return origin, destination, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

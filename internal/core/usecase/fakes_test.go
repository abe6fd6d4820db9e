package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

type lookupFake struct {
	mu          sync.Mutex
	results     map[string][]domain.CodeRecord
	details     map[string]*domain.CodeRecord
	eligibility domain.Eligibility
	queries     []string
}

func (f *lookupFake) Search(_ context.Context, query string) []domain.CodeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if records, ok := f.results[query]; ok {
		return records
	}
	return []domain.CodeRecord{{Code: "0000.00.0000", Description: "No matching HTS code found", IsFallback: true}}
}

func (f *lookupFake) Details(_ context.Context, code string) *domain.CodeRecord {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if rec, ok := f.details[code]; ok {
		return rec
	}
	return nil
}

func (f *lookupFake) Eligibility(context.Context, string, string, string) domain.Eligibility {
	return f.eligibility
}

type generatorFake struct {
	mu       sync.Mutex
	json     bool
	respond  func(prompt string) (string, error)
	prompts  []string
	jsonCall int
	textCall int
}

func (f *generatorFake) GenerateText(_ context.Context, prompt string, _ ports.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.textCall++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *generatorFake) GenerateJSON(_ context.Context, prompt string, _ ports.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.jsonCall++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *generatorFake) SupportsJSON() bool { return f.json }

var errGeneratorDown = errors.New("generator unavailable")

func failingGenerator() *generatorFake {
	return &generatorFake{respond: func(string) (string, error) { return "", errGeneratorDown }}
}

type mapCache[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

func newMapCache[V any]() *mapCache[V] {
	return &mapCache[V]{items: make(map[string]V)}
}

func (c *mapCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

type analysisRepoFake struct {
	saved   map[string]*domain.AnalysisResult
	saveErr error
}

func newAnalysisRepoFake() *analysisRepoFake {
	return &analysisRepoFake{saved: make(map[string]*domain.AnalysisResult)}
}

func (f *analysisRepoFake) Save(_ context.Context, result *domain.AnalysisResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[result.ID] = result
	return nil
}

func (f *analysisRepoFake) GetByID(_ context.Context, id string) (*domain.AnalysisResult, error) {
	result, ok := f.saved[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrAnalysisNotFound, "get analysis", errors.New(id))
	}
	return result, nil
}

type referenceFake struct{}

func (referenceFake) CountryName(code string) string {
	return map[string]string{"MX": "Mexico", "US": "United States"}[code]
}

func (referenceFake) AgreementsFor(origin, destination string) []domain.TradeAgreement {
	if origin == "MX" && destination == "US" {
		return []domain.TradeAgreement{{Code: "USMCA", Name: "United States-Mexico-Canada Agreement"}}
	}
	return nil
}

type observerFake struct {
	mu         sync.Mutex
	expansions []int
	rankings   []int
	failures   []string
}

func (f *observerFake) ObserveExpansion(terms int, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expansions = append(f.expansions, terms)
}

func (f *observerFake) ObserveRanking(candidates int, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rankings = append(f.rankings, candidates)
}

func (f *observerFake) ObserveGeneratorFailure(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, stage)
}

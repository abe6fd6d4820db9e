package usecase

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

func TestExpandWithoutGeneratorReturnsDescription(t *testing.T) {
	expander := NewQueryExpander(ExpanderDeps{})

	got := expander.Expand(context.Background(), "Packing-less bumper retainer")
	if !reflect.DeepEqual(got, []string{"Packing-less bumper retainer"}) {
		t.Fatalf("unexpected terms %v", got)
	}
	if _, ok := expander.Analysis("Packing-less bumper retainer"); ok {
		t.Fatalf("no analysis expected without a generator")
	}
}

func TestExpandTextChannel(t *testing.T) {
	gen := &generatorFake{respond: func(string) (string, error) {
		return "MATERIALS:\n- plastic\nHTS_CODES:\n- 8708.10.30 (bumpers)\n- Chapter 87\nSEARCH_TERMS:\n- bumper retainer\n- plastic clip", nil
	}}
	expander := NewQueryExpander(ExpanderDeps{
		Generator: gen,
		Analyses:  newMapCache[domain.ProductAnalysis](),
		Terms:     newMapCache[[]string](),
	})

	got := expander.Expand(context.Background(), "bumper clip")
	want := []string{"bumper retainer", "plastic clip", "bumper clip", "8708.10.30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if gen.textCall != 1 || gen.jsonCall != 0 {
		t.Fatalf("expected one text call, got text=%d json=%d", gen.textCall, gen.jsonCall)
	}
	analysis, ok := expander.Analysis("bumper clip")
	if !ok || !reflect.DeepEqual(analysis.Materials, []string{"plastic"}) {
		t.Fatalf("expected cached analysis, got %+v", analysis)
	}
}

func TestExpandJSONChannel(t *testing.T) {
	gen := &generatorFake{json: true, respond: func(prompt string) (string, error) {
		if !strings.Contains(prompt, `"SEARCH_TERMS"`) {
			t.Fatalf("expected json instructions in prompt")
		}
		return `{"SEARCH_TERMS": ["nylon fastener"], "HTS_CODES": ["3926.90.99"]}`, nil
	}}
	expander := NewQueryExpander(ExpanderDeps{Generator: gen})

	got := expander.Expand(context.Background(), "trim clip")
	want := []string{"nylon fastener", "trim clip", "3926.90.99"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if gen.jsonCall != 1 {
		t.Fatalf("expected json channel, got %d json calls", gen.jsonCall)
	}
}

func TestExpandJSONChannelFallsBackToTextParser(t *testing.T) {
	gen := &generatorFake{json: true, respond: func(string) (string, error) {
		return "SEARCH_TERMS: bolt, hex bolt", nil
	}}
	expander := NewQueryExpander(ExpanderDeps{Generator: gen})

	got := expander.Expand(context.Background(), "steel bolt")
	if !reflect.DeepEqual(got, []string{"bolt", "hex bolt", "steel bolt"}) {
		t.Fatalf("unexpected terms %v", got)
	}
}

func TestExpandDegradesOnGeneratorFailure(t *testing.T) {
	gen := failingGenerator()
	terms := newMapCache[[]string]()
	observer := &observerFake{}
	expander := NewQueryExpander(ExpanderDeps{Generator: gen, Terms: terms, Observer: observer})

	for i := 0; i < 2; i++ {
		got := expander.Expand(context.Background(), "bumper clip")
		if !reflect.DeepEqual(got, []string{"bumper clip"}) {
			t.Fatalf("expected description only, got %v", got)
		}
	}
	if gen.textCall != 2 {
		t.Fatalf("failures must not be cached, got %d calls", gen.textCall)
	}
	if len(observer.failures) != 2 || observer.failures[0] != "expand" {
		t.Fatalf("expected expand failures observed, got %v", observer.failures)
	}
}

func TestExpandDegradesOnUnusablePayload(t *testing.T) {
	gen := &generatorFake{respond: func(string) (string, error) { return "I am not sure.", nil }}
	got := NewQueryExpander(ExpanderDeps{Generator: gen}).Expand(context.Background(), "gizmo")
	if !reflect.DeepEqual(got, []string{"gizmo"}) {
		t.Fatalf("expected description only, got %v", got)
	}
}

func TestExpandServesCachedTerms(t *testing.T) {
	gen := &generatorFake{respond: func(string) (string, error) { return "SEARCH_TERMS:\n- clip", nil }}
	expander := NewQueryExpander(ExpanderDeps{Generator: gen, Terms: newMapCache[[]string]()})

	first := expander.Expand(context.Background(), "clip")
	first[0] = "mutated"
	second := expander.Expand(context.Background(), "clip")

	if gen.textCall != 1 {
		t.Fatalf("expected cached terms, got %d calls", gen.textCall)
	}
	if second[0] != "clip" {
		t.Fatalf("cached terms must not alias caller slices, got %v", second)
	}
}

func TestBuildSearchTermsAlwaysIncludesDescription(t *testing.T) {
	got := BuildSearchTerms("rubber gasket", domain.ProductAnalysis{
		SearchTerms:    []string{"gasket", "rubber gasket"},
		CandidateCodes: []string{"4016.93.50:", "4016.93.50", "N/A", "Chapter 40", "8484.10.00 Gaskets of metal"},
	})
	want := []string{"gasket", "rubber gasket", "4016.93.50", "8484.10.00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = BuildSearchTerms("rubber gasket", domain.ProductAnalysis{})
	if !reflect.DeepEqual(got, []string{"rubber gasket"}) {
		t.Fatalf("expected description only, got %v", got)
	}
}

package mcpadapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

type analyzerStub struct {
	lastDestination string
	documentSource  string
}

func (a *analyzerStub) AnalyzeProduct(_ context.Context, description, origin, destination string) (*domain.AnalysisResult, error) {
	a.lastDestination = destination
	if description == "fail" {
		return nil, domain.WrapError(domain.ErrTemporary, "analyze product", errors.New("lookup down"))
	}
	return &domain.AnalysisResult{
		ID:          "an-7",
		Description: description,
		Origin:      origin,
		Destination: destination,
		Candidates: []domain.Candidate{{
			CodeRecord: domain.CodeRecord{Code: "8708.99.81", Description: "Retainer clips", Rates: domain.Rates{General: "2.5%"}},
			Confidence: domain.ConfidenceHigh,
		}},
	}, nil
}

func (a *analyzerStub) TariffDocument(_ context.Context, description, code, origin, destination string) (*domain.TariffDocument, error) {
	a.documentSource = "adhoc"
	return &domain.TariffDocument{
		ProductDescription: description,
		Record:             domain.CodeRecord{Code: code, Rates: domain.Rates{General: "2.5%"}},
		Origin:             domain.Country{Code: origin},
		Destination:        domain.Country{Code: destination},
		Explanation:        "Clips enter at 2.5%.",
	}, nil
}

func (a *analyzerStub) TariffDocumentForAnalysis(_ context.Context, analysisID, code string) (*domain.TariffDocument, error) {
	a.documentSource = "analysis:" + analysisID
	return &domain.TariffDocument{Record: domain.CodeRecord{Code: code}}, nil
}

type inspectorStub struct {
	detailCalls int
	fallback    bool
}

func (s *inspectorStub) CodeDetails(_ context.Context, code string) (*domain.CodeRecord, error) {
	s.detailCalls++
	return &domain.CodeRecord{Code: code, Description: "Retainer clips", Rates: domain.Rates{General: "2.5%"}, IsFallback: s.fallback}, nil
}

func (s *inspectorStub) Strategies(ctx context.Context, code string) (*domain.StrategyReport, error) {
	rec, err := s.CodeDetails(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.StrategiesFor(*rec), nil
}

func (*inspectorStub) StrategiesFor(rec domain.CodeRecord) *domain.StrategyReport {
	return &domain.StrategyReport{Code: rec.Code, ImportValue: 2_000_000, GeneralRate: rec.Rates.General, DutyRate: 0.025, AnnualDuty: 50_000}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("expected tool content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAnalyzeProductToolDefaultsDestination(t *testing.T) {
	analyzer := &analyzerStub{}
	s := NewServer(analyzer, &inspectorStub{}, nil)

	result, err := s.analyzeProduct(context.Background(), callRequest(ToolAnalyzeProduct, map[string]any{
		"description": "plastic retainer clips",
		"origin":      "CN",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if analyzer.lastDestination != "US" {
		t.Fatalf("expected default destination US, got %q", analyzer.lastDestination)
	}
	if text := resultText(t, result); !strings.Contains(text, "1. 8708.99.81") || !strings.Contains(text, "Analysis an-7") {
		t.Fatalf("unexpected tool text:\n%s", text)
	}
}

func TestAnalyzeProductToolRequiresOrigin(t *testing.T) {
	s := NewServer(&analyzerStub{}, &inspectorStub{}, nil)

	result, err := s.analyzeProduct(context.Background(), callRequest(ToolAnalyzeProduct, map[string]any{
		"description": "clips",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing origin")
	}
}

func TestAnalyzeProductToolReportsFailuresInBand(t *testing.T) {
	s := NewServer(&analyzerStub{}, &inspectorStub{}, nil)

	result, err := s.analyzeProduct(context.Background(), callRequest(ToolAnalyzeProduct, map[string]any{
		"description": "fail",
		"origin":      "CN",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "lookup down") {
		t.Fatalf("expected in-band tool error, got %+v", result)
	}
}

func TestLookupCodeToolFormatsMoney(t *testing.T) {
	s := NewServer(&analyzerStub{}, &inspectorStub{}, nil)

	result, err := s.lookupCode(context.Background(), callRequest(ToolLookupCode, map[string]any{"code": "8708.99.81"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"8708.99.81  Retainer clips", "$2,000,000.00", "$50,000.00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestLookupCodeToolLooksUpOnce(t *testing.T) {
	codes := &inspectorStub{fallback: true}
	s := NewServer(&analyzerStub{}, codes, nil)

	result, err := s.lookupCode(context.Background(), callRequest(ToolLookupCode, map[string]any{"code": "8708.99.81"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codes.detailCalls != 1 {
		t.Fatalf("expected a single code lookup, got %d", codes.detailCalls)
	}
	if text := resultText(t, result); !strings.Contains(text, "rates are placeholders") || !strings.Contains(text, "$50,000.00") {
		t.Fatalf("unexpected tool text:\n%s", text)
	}
}

func TestTariffDocumentToolPrefersStoredAnalysis(t *testing.T) {
	analyzer := &analyzerStub{}
	s := NewServer(analyzer, &inspectorStub{}, nil)

	if _, err := s.tariffDocument(context.Background(), callRequest(ToolTariffDocument, map[string]any{
		"code":        "8708.99.81",
		"analysis_id": "an-7",
	})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analyzer.documentSource != "analysis:an-7" {
		t.Fatalf("expected stored analysis path, got %q", analyzer.documentSource)
	}

	result, err := s.tariffDocument(context.Background(), callRequest(ToolTariffDocument, map[string]any{
		"code":        "8708.99.81",
		"description": "clips",
		"origin":      "CN",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analyzer.documentSource != "adhoc" {
		t.Fatalf("expected ad-hoc path, got %q", analyzer.documentSource)
	}
	if !strings.Contains(resultText(t, result), "Clips enter at 2.5%.") {
		t.Fatalf("expected explanation in document text")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(&analyzerStub{}, &inspectorStub{}, nil)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{ToolAnalyzeProduct, ToolLookupCode, ToolTariffDocument} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("expected tool %q to be registered", name)
		}
	}
}

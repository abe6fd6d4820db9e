package ports

import (
	"context"
	"io"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

// ProductAnalyzer is the inbound contract for classification lookups.
type ProductAnalyzer interface {
	AnalyzeProduct(ctx context.Context, description, origin, destination string) (*domain.AnalysisResult, error)
	TariffDocument(ctx context.Context, description, code, origin, destination string) (*domain.TariffDocument, error)
	TariffDocumentForAnalysis(ctx context.Context, analysisID, code string) (*domain.TariffDocument, error)
}

// AnalysisReader is the inbound read model for stored analyses.
type AnalysisReader interface {
	GetAnalysis(ctx context.Context, id string) (*domain.AnalysisResult, error)
}

// CodeInspector exposes direct code lookups and strategy composition.
type CodeInspector interface {
	CodeDetails(ctx context.Context, code string) (*domain.CodeRecord, error)
	Strategies(ctx context.Context, code string) (*domain.StrategyReport, error)
	// StrategiesFor composes strategies for a record the caller already holds.
	StrategiesFor(rec domain.CodeRecord) *domain.StrategyReport
}

// ReportExporter requests and serves analysis reports.
type ReportExporter interface {
	RequestReport(ctx context.Context, analysisID string) (*domain.ReportStatus, error)
	OpenReport(ctx context.Context, analysisID string) (io.ReadCloser, string, error)
}

// ReportProcessor is the inbound contract for asynchronous report rendering.
type ReportProcessor interface {
	ExportByID(ctx context.Context, analysisID string) error
}

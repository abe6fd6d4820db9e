package ports

import (
	"context"
	"io"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

// TariffLookup resolves classification codes against the tariff schedule service.
// Implementations degrade to fallback records instead of failing.
type TariffLookup interface {
	Search(ctx context.Context, query string) []domain.CodeRecord
	Details(ctx context.Context, code string) *domain.CodeRecord
	Eligibility(ctx context.Context, code, origin, destination string) domain.Eligibility
}

type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// TextGenerator is a generative text model backend.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	GenerateJSON(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	// SupportsJSON reports whether GenerateJSON is guaranteed to return a JSON payload.
	SupportsJSON() bool
}

// AnalysisRepository persists ranked analyses.
type AnalysisRepository interface {
	Save(ctx context.Context, result *domain.AnalysisResult) error
	GetByID(ctx context.Context, id string) (*domain.AnalysisResult, error)
}

// ObjectStorage stores rendered reports.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReportQueue publishes/consumes report export requests.
type ReportQueue interface {
	PublishReportRequested(ctx context.Context, analysisID string) error
	SubscribeReportRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ReportRenderer renders an analysis and its strategies into a downloadable document.
type ReportRenderer interface {
	Render(result *domain.AnalysisResult, strategies *domain.StrategyReport) ([]byte, error)
	ContentType() string
	Extension() string
}

// ReferenceData resolves static country and trade agreement metadata.
type ReferenceData interface {
	CountryName(code string) string
	AgreementsFor(origin, destination string) []domain.TradeAgreement
}

// PipelineObserver receives pipeline measurements; implementations must be cheap.
type PipelineObserver interface {
	ObserveExpansion(terms int, fromModel bool)
	ObserveRanking(candidates int, fallback bool)
	ObserveGeneratorFailure(stage string)
}

// Cache is a bounded key/value cache shared across requests.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Add(key string, value V)
}

package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/config"
	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
	"github.com/kirillkom/tariff-assistant/internal/observability/metrics"
)

const (
	serviceName     = "tariff-api"
	maxRequestBytes = 1 << 20
)

type Router struct {
	cfg      config.Config
	analyzer ports.ProductAnalyzer
	analyses ports.AnalysisReader
	codes    ports.CodeInspector
	reports  ports.ReportExporter
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
}

type Option func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// NewRouter wires the API. reports may be nil, in which case the report routes are not served.
func NewRouter(
	cfg config.Config,
	analyzer ports.ProductAnalyzer,
	analyses ports.AnalysisReader,
	codes ports.CodeInspector,
	reports ports.ReportExporter,
	opts ...Option,
) *Router {
	rt := &Router{
		cfg:      cfg,
		analyzer: analyzer,
		analyses: analyses,
		codes:    codes,
		reports:  reports,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/analyses", rt.analyzeProduct)
	mux.HandleFunc("GET /v1/analyses/{analysis_id}", rt.getAnalysis)
	mux.HandleFunc("GET /v1/codes/{code}", rt.codeDetails)
	mux.HandleFunc("POST /v1/documents", rt.tariffDocument)
	mux.HandleFunc("POST /v1/strategies", rt.strategies)
	if rt.reports != nil {
		mux.HandleFunc("POST /v1/analyses/{analysis_id}/report", rt.requestReport)
		mux.HandleFunc("GET /v1/analyses/{analysis_id}/report", rt.downloadReport)
	}

	var handler http.Handler = mux
	if rt.cfg.APIOpenAPIValidation {
		validator, err := newRequestValidator()
		if err != nil {
			rt.logger.Error("openapi_validation_disabled", "error", err)
		} else {
			handler = validator.middleware(handler)
		}
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait, rt.rejected("backpressure"))
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limit"))
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) rejected(reason string) func() {
	if rt.metrics == nil {
		return nil
	}
	return func() { rt.metrics.RecordRejected(serviceName, reason) }
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	Description string `json:"description"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (rt *Router) analyzeProduct(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := rt.analyzer.AnalyzeProduct(r.Context(), req.Description, req.Origin, req.Destination)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) getAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := rt.analyses.GetAnalysis(r.Context(), r.PathValue("analysis_id"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) codeDetails(w http.ResponseWriter, r *http.Request) {
	record, err := rt.codes.CodeDetails(r.Context(), r.PathValue("code"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type documentRequest struct {
	Code        string `json:"code"`
	AnalysisID  string `json:"analysis_id"`
	Description string `json:"description"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// tariffDocument serves either a stored analysis selection (analysis_id + code) or an
// ad-hoc lookup (description, code and trade lane).
func (rt *Router) tariffDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		doc *domain.TariffDocument
		err error
	)
	if strings.TrimSpace(req.AnalysisID) != "" {
		doc, err = rt.analyzer.TariffDocumentForAnalysis(r.Context(), req.AnalysisID, req.Code)
	} else {
		doc, err = rt.analyzer.TariffDocument(r.Context(), req.Description, req.Code, req.Origin, req.Destination)
	}
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type strategyRequest struct {
	Code string `json:"code"`
}

func (rt *Router) strategies(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := rt.codes.Strategies(r.Context(), req.Code)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) requestReport(w http.ResponseWriter, r *http.Request) {
	status, err := rt.reports.RequestReport(r.Context(), r.PathValue("analysis_id"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	code := http.StatusOK
	if status.State == domain.ReportPending {
		code = http.StatusAccepted
	}
	writeJSON(w, code, status)
}

func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request) {
	analysisID := r.PathValue("analysis_id")
	body, contentType, err := rt.reports.OpenReport(r.Context(), analysisID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tariff-analysis-%s.xlsx"`, analysisID))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		rt.logger.Warn("report_stream_failed", "analysis_id", analysisID, "error", err)
	}
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

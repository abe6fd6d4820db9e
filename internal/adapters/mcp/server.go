// Package mcpadapter exposes the classification pipeline as MCP tools.
package mcpadapter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
	"github.com/kirillkom/tariff-assistant/internal/format"
)

const (
	serverName    = "tariff-assistant"
	serverVersion = "1.0.0"

	ToolAnalyzeProduct = "analyze_product"
	ToolLookupCode     = "lookup_code"
	ToolTariffDocument = "tariff_document"
)

type Server struct {
	analyzer ports.ProductAnalyzer
	codes    ports.CodeInspector
	logger   *slog.Logger
	mcp      *server.MCPServer
}

func NewServer(analyzer ports.ProductAnalyzer, codes ports.CodeInspector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		analyzer: analyzer,
		codes:    codes,
		logger:   logger,
		mcp:      server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolAnalyzeProduct,
		mcp.WithDescription("Classify a product description into ranked HTS codes for a trade lane."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Free-text product description")),
		mcp.WithString("origin", mcp.Required(), mcp.Description("ISO-2 country of origin, e.g. CN")),
		mcp.WithString("destination", mcp.Description("ISO-2 destination country, defaults to US")),
	), s.analyzeProduct)

	s.mcp.AddTool(mcp.NewTool(ToolLookupCode,
		mcp.WithDescription("Look up one HTS code and compute duty-minimization strategies."),
		mcp.WithString("code", mcp.Required(), mcp.Description("HTS code, e.g. 8708.99.81")),
	), s.lookupCode)

	s.mcp.AddTool(mcp.NewTool(ToolTariffDocument,
		mcp.WithDescription("Build the tariff document for a selected code, from a stored analysis or an ad-hoc product."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Selected HTS code")),
		mcp.WithString("analysis_id", mcp.Description("Stored analysis to take the product and trade lane from")),
		mcp.WithString("description", mcp.Description("Product description when no analysis_id is given")),
		mcp.WithString("origin", mcp.Description("ISO-2 country of origin when no analysis_id is given")),
		mcp.WithString("destination", mcp.Description("ISO-2 destination country, defaults to US")),
	), s.tariffDocument)
}

func (s *Server) analyzeProduct(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	origin, err := req.RequireString("origin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	destination := req.GetString("destination", "US")

	result, err := s.analyzer.AnalyzeProduct(ctx, description, origin, destination)
	if err != nil {
		return s.toolError(ToolAnalyzeProduct, err), nil
	}
	var out strings.Builder
	format.WriteAnalysis(&out, result)
	return mcp.NewToolResultText(out.String()), nil
}

func (s *Server) lookupCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.codes.CodeDetails(ctx, code)
	if err != nil {
		return s.toolError(ToolLookupCode, err), nil
	}
	report := s.codes.StrategiesFor(*rec)

	var out strings.Builder
	out.WriteString(rec.Code + "  " + rec.Description + "\n")
	if rec.IsFallback {
		out.WriteString("Tariff lookup unavailable; rates are placeholders.\n")
	}
	out.WriteString("\n")
	format.WriteStrategies(&out, report)
	return mcp.NewToolResultText(out.String()), nil
}

func (s *Server) tariffDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var doc *domain.TariffDocument
	if analysisID := strings.TrimSpace(req.GetString("analysis_id", "")); analysisID != "" {
		doc, err = s.analyzer.TariffDocumentForAnalysis(ctx, analysisID, code)
	} else {
		doc, err = s.analyzer.TariffDocument(ctx,
			req.GetString("description", ""),
			code,
			req.GetString("origin", ""),
			req.GetString("destination", "US"),
		)
	}
	if err != nil {
		return s.toolError(ToolTariffDocument, err), nil
	}

	var out strings.Builder
	format.WriteDocument(&out, doc)
	return mcp.NewToolResultText(out.String()), nil
}

// toolError reports failures in-band so the client model can react to them.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("mcp_tool_failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

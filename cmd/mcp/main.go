package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/tariff-assistant/internal/adapters/mcp"
	"github.com/kirillkom/tariff-assistant/internal/bootstrap"
	"github.com/kirillkom/tariff-assistant/internal/config"
	"github.com/kirillkom/tariff-assistant/internal/observability/logging"
)

const serviceName = "tariff-mcp"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Service: serviceName})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("mcp_serving_stdio")
	if err := mcpadapter.NewServer(app.Analyzer, app.Analyzer, logger).ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}

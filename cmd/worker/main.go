package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/tariff-assistant/internal/bootstrap"
	"github.com/kirillkom/tariff-assistant/internal/config"
	"github.com/kirillkom/tariff-assistant/internal/observability/logging"
	"github.com/kirillkom/tariff-assistant/internal/observability/metrics"
)

const (
	serviceName   = "tariff-worker"
	exportTimeout = 2 * time.Minute
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:     logger,
		Registerer: workerMetrics.Registry(),
		Service:    serviceName,
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.Queue == nil {
		logger.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeReportRequested(ctx, func(handlerCtx context.Context, analysisID string) error {
		exportCtx, cancel := context.WithTimeout(handlerCtx, exportTimeout)
		defer cancel()

		if result, err := app.Analyzer.GetAnalysis(exportCtx, analysisID); err == nil {
			workerMetrics.ObserveAnalysisAge(serviceName, time.Since(result.CreatedAt))
		}

		workerMetrics.StartExport()
		start := time.Now()
		err := app.Reports.ExportByID(exportCtx, analysisID)
		workerMetrics.FinishExport(serviceName, time.Since(start), err)
		if err == nil {
			logger.Info("report_exported", "analysis_id", analysisID, "duration_ms", time.Since(start).Milliseconds())
		}
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

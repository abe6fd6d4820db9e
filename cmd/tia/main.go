package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/tariff-assistant/internal/adapters/cli"
	"github.com/kirillkom/tariff-assistant/internal/bootstrap"
	"github.com/kirillkom/tariff-assistant/internal/config"
	"github.com/kirillkom/tariff-assistant/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (cli.Services, func(), error) {
		cfg := config.Load()
		// Keep stdout for command output.
		logger := logging.NewJSONLoggerTo(os.Stderr, "tia", cfg.LogLevel)
		app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Service: "tia"})
		if err != nil {
			return cli.Services{}, nil, err
		}
		return cli.Services{
			Analyzer:  app.Analyzer,
			Codes:     app.Analyzer,
			Countries: app.Reference.Countries,
		}, app.Close, nil
	}

	if err := cli.Execute(ctx, open, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

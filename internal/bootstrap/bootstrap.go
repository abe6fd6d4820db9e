package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/tariff-assistant/internal/config"
	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
	"github.com/kirillkom/tariff-assistant/internal/core/usecase"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/cache"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/lookup/usitc"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/refdata"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/repository/memory"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/tariff-assistant/internal/observability/metrics"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// ErrQueueWithoutSharedStore rejects a report queue over a process-local repository:
// the worker would never find analyses saved by the API.
var ErrQueueWithoutSharedStore = errors.New("NATS_URL requires POSTGRES_DSN")

type App struct {
	Config config.Config
	Logger *slog.Logger

	Analyzer  *usecase.AnalyzeUseCase
	Reports   *usecase.ReportUseCase
	Reference *refdata.Store
	Metrics   *metrics.PipelineMetrics
	// Queue is nil when reports are rendered inline.
	Queue ports.ReportQueue

	closeFn func()
}

type Options struct {
	Logger *slog.Logger
	// Registerer receives pipeline metrics; nil keeps them in a private registry.
	Registerer prometheus.Registerer
	// Service labels pipeline metrics.
	Service string
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.NATSURL) != "" && strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, ErrQueueWithoutSharedStore
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	service := opts.Service
	if service == "" {
		service = "tariff-assistant"
	}
	pipelineMetrics := metrics.NewPipelineMetrics(service, opts.Registerer)

	executor := resilience.NewExecutor(resilienceConfig(cfg),
		resilience.WithLogger(logger),
		resilience.WithStateListener(pipelineMetrics.ObserveBreakerState),
	)

	lookupCache, err := cache.NewLRU[[]domain.CodeRecord](cfg.LookupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init lookup cache: %w", err)
	}
	lookup := usitc.NewWithOptions(cfg.USITCBaseURL, usitc.Options{
		Timeout:    cfg.USITCTimeout,
		Executor:   executor,
		Cache:      lookupCache,
		Logger:     logger,
		OnFallback: pipelineMetrics.ObserveLookupFallback,
	})

	generator, err := newGenerator(cfg, executor)
	if err != nil {
		return nil, err
	}
	if generator == nil {
		logger.Info("text_generator_disabled", "provider", cfg.LLMProvider)
	}

	reference, err := refdata.Load(cfg.ReferenceDataPath)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, db, err := newAnalysisRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}

	storage, err := localfs.New(cfg.ReportStorageDir)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init report storage: %w", err)
	}

	var queue ports.ReportQueue
	if strings.TrimSpace(cfg.NATSURL) != "" {
		q, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init report queue: %w", err)
		}
		closers = append(closers, q.Close)
		queue = q
	}

	if cfg.ReferenceDataWatch && strings.TrimSpace(cfg.ReferenceDataPath) != "" {
		watchCtx, cancel := context.WithCancel(context.Background())
		if err := reference.Watch(watchCtx, cfg.ReferenceDataPath, logger); err != nil {
			cancel()
			closeAll()
			return nil, fmt.Errorf("watch reference data: %w", err)
		}
		closers = append(closers, cancel)
	}

	composer := usecase.NewStrategyComposer(cfg.ImportValue)
	expander := usecase.NewQueryExpander(usecase.ExpanderDeps{
		Generator: generator,
		Analyses:  cache.MustLRU[domain.ProductAnalysis](cfg.ExpansionCacheSize),
		Terms:     cache.MustLRU[[]string](cfg.ExpansionCacheSize),
		Observer:  pipelineMetrics,
		Logger:    logger,
	})
	weights := relevanceWeights(cfg)
	ranker := usecase.NewCandidateRanker(lookup, generator, usecase.RankerConfig{
		Weights:        &weights,
		ConfidenceTopN: cfg.ConfidenceTopN,
		Concurrency:    cfg.LookupConcurrency,
	}, pipelineMetrics, logger)

	analyzer := usecase.NewAnalyzeUseCase(usecase.AnalyzeDeps{
		Lookup:       lookup,
		Expander:     expander,
		Ranker:       ranker,
		Composer:     composer,
		Repository:   repo,
		Reference:    reference,
		Generator:    generator,
		Explanations: cache.MustLRU[string](cfg.ExplanationCacheSize),
		Logger:       logger,
	})
	reports := usecase.NewReportUseCase(repo, composer, xlsx.NewRenderer(), storage, queue)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Analyzer:  analyzer,
		Reports:   reports,
		Reference: reference,
		Metrics:   pipelineMetrics,
		Queue:     queue,
		closeFn:   closeAll,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// newGenerator returns a nil interface when the provider is "none".
func newGenerator(cfg config.Config, executor *resilience.Executor) (ports.TextGenerator, error) {
	switch cfg.LLMProvider {
	case ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		gen, err := openai.New(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		}, executor)
		if err != nil {
			return nil, fmt.Errorf("init openai generator: %w", err)
		}
		return gen, nil
	case ProviderOllama, "":
		return ollama.NewGenerator(ollama.NewWithExecutor(cfg.OllamaURL, cfg.OllamaGenModel, cfg.LLMTimeout, executor)), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func newAnalysisRepository(ctx context.Context, cfg config.Config) (ports.AnalysisRepository, *sql.DB, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		repo, err := memory.NewAnalysisRepository(cfg.MemoryAnalyses)
		if err != nil {
			return nil, nil, fmt.Errorf("init memory repository: %w", err)
		}
		return repo, nil, nil
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewAnalysisRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		rc.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	rc.BreakerEnabled = cfg.BreakerEnabled
	if cfg.BreakerOpenTimeout > 0 {
		rc.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	}
	return rc
}

func relevanceWeights(cfg config.Config) usecase.RelevanceWeights {
	w := usecase.DefaultRelevanceWeights()
	w.TermMatch = cfg.RelevanceTermMatch
	w.CodeMatch = cfg.RelevanceCodeMatch
	w.WordMatch = cfg.RelevanceWordMatch
	w.OriginalTerm = cfg.RelevanceOriginalTerm
	w.MinScore = cfg.RelevanceMinScore
	return w
}

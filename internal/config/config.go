package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	// PostgresDSN selects the Postgres analysis repository; empty keeps analyses in memory.
	PostgresDSN      string
	MemoryAnalyses   int
	ReportStorageDir string

	// NATSURL enables asynchronous report export; empty renders reports inline.
	NATSURL     string
	NATSSubject string

	USITCBaseURL      string
	USITCTimeout      time.Duration
	LookupConcurrency int
	LookupCacheSize   int

	LLMProvider    string
	LLMTimeout     time.Duration
	OllamaURL      string
	OllamaGenModel string
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	OpenAIModel    string

	ExpansionCacheSize   int
	ExplanationCacheSize int
	ConfidenceTopN       int

	RelevanceTermMatch    int
	RelevanceCodeMatch    int
	RelevanceWordMatch    int
	RelevanceOriginalTerm int
	RelevanceMinScore     int

	ImportValue float64

	ReferenceDataPath  string
	ReferenceDataWatch bool

	APIRateLimitRPS            float64
	APIRateLimitBurst          int
	APIBackpressureMaxInFlight int
	APIBackpressureWait        time.Duration
	APIOpenAPIValidation       bool

	RetryMaxAttempts   int
	BreakerEnabled     bool
	BreakerOpenTimeout time.Duration

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN:      mustEnv("POSTGRES_DSN", ""),
		MemoryAnalyses:   mustEnvInt("MEMORY_ANALYSES_CAPACITY", 1000),
		ReportStorageDir: mustEnv("STORAGE_PATH", "./data/storage"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "tariff.reports.requested"),

		USITCBaseURL:      mustEnv("USITC_BASE_URL", "https://hts.usitc.gov/reststop"),
		USITCTimeout:      time.Duration(mustEnvInt("USITC_TIMEOUT_SECONDS", 10)) * time.Second,
		LookupConcurrency: mustEnvInt("LOOKUP_CONCURRENCY", 4),
		LookupCacheSize:   mustEnvInt("LOOKUP_CACHE_SIZE", 512),

		LLMProvider:    strings.ToLower(mustEnv("LLM_PROVIDER", "ollama")),
		LLMTimeout:     time.Duration(mustEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		OllamaURL:      mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel: mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OpenAIBaseURL:  mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:   mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    mustEnv("OPENAI_MODEL", "gpt-4"),

		ExpansionCacheSize:   mustEnvInt("EXPANSION_CACHE_SIZE", 256),
		ExplanationCacheSize: mustEnvInt("EXPLANATION_CACHE_SIZE", 256),
		ConfidenceTopN:       mustEnvInt("CONFIDENCE_TOP_N", 10),

		RelevanceTermMatch:    mustEnvInt("RELEVANCE_TERM_MATCH", 3),
		RelevanceCodeMatch:    mustEnvInt("RELEVANCE_CODE_MATCH", 5),
		RelevanceWordMatch:    mustEnvInt("RELEVANCE_WORD_MATCH", 1),
		RelevanceOriginalTerm: mustEnvInt("RELEVANCE_ORIGINAL_TERM", 2),
		RelevanceMinScore:     mustEnvInt("RELEVANCE_MIN_SCORE", 1),

		ImportValue: mustEnvFloat("IMPORT_VALUE", 2_000_000),

		ReferenceDataPath:  mustEnv("REFERENCE_DATA_PATH", ""),
		ReferenceDataWatch: mustEnvBool("REFERENCE_DATA_WATCH", false),

		APIRateLimitRPS:            mustEnvFloat("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst:          mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIBackpressureMaxInFlight: mustEnvInt("API_BACKPRESSURE_MAX_IN_FLIGHT", 32),
		APIBackpressureWait:        time.Duration(mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250)) * time.Millisecond,
		APIOpenAPIValidation:       mustEnvBool("API_OPENAPI_VALIDATION", true),

		RetryMaxAttempts:   mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		BreakerEnabled:     mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		BreakerOpenTimeout: time.Duration(mustEnvInt("RESILIENCE_BREAKER_OPEN_SECONDS", 30)) * time.Second,

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

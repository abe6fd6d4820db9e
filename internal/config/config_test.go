package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"POSTGRES_DSN", "NATS_URL", "LLM_PROVIDER", "IMPORT_VALUE", "LOOKUP_CONCURRENCY", "USITC_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.PostgresDSN != "" || cfg.NATSURL != "" {
		t.Fatalf("expected in-process defaults, got dsn=%q nats=%q", cfg.PostgresDSN, cfg.NATSURL)
	}
	if cfg.LLMProvider != "ollama" {
		t.Fatalf("expected default provider ollama, got %q", cfg.LLMProvider)
	}
	if cfg.ImportValue != 2_000_000 {
		t.Fatalf("expected default import value, got %v", cfg.ImportValue)
	}
	if cfg.LookupConcurrency != 4 {
		t.Fatalf("expected default lookup concurrency 4, got %d", cfg.LookupConcurrency)
	}
	if cfg.USITCTimeout != 10*time.Second {
		t.Fatalf("expected 10s lookup timeout, got %v", cfg.USITCTimeout)
	}
	if cfg.NATSSubject != "tariff.reports.requested" {
		t.Fatalf("unexpected subject %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("IMPORT_VALUE", "500000.5")
	t.Setenv("RELEVANCE_MIN_SCORE", "3")
	t.Setenv("API_RATE_LIMIT_RPS", "0.5")
	t.Setenv("REFERENCE_DATA_WATCH", "true")
	t.Setenv("API_BACKPRESSURE_WAIT_MS", "40")

	cfg := Load()
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected lower-cased provider, got %q", cfg.LLMProvider)
	}
	if cfg.ImportValue != 500000.5 {
		t.Fatalf("expected import value override, got %v", cfg.ImportValue)
	}
	if cfg.RelevanceMinScore != 3 {
		t.Fatalf("expected min score 3, got %d", cfg.RelevanceMinScore)
	}
	if cfg.APIRateLimitRPS != 0.5 {
		t.Fatalf("expected fractional rps, got %v", cfg.APIRateLimitRPS)
	}
	if !cfg.ReferenceDataWatch {
		t.Fatalf("expected reference watch enabled")
	}
	if cfg.APIBackpressureWait != 40*time.Millisecond {
		t.Fatalf("expected 40ms wait, got %v", cfg.APIBackpressureWait)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("IMPORT_VALUE", "two million")
	t.Setenv("LOOKUP_CONCURRENCY", "many")

	cfg := Load()
	if cfg.ImportValue != 2_000_000 || cfg.LookupConcurrency != 4 {
		t.Fatalf("expected defaults for malformed values, got %v / %d", cfg.ImportValue, cfg.LookupConcurrency)
	}
}

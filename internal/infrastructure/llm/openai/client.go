package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/tariff-assistant/internal/core/ports"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// jsonModeModels accept response_format=json_object.
var jsonModeModels = []string{
	"gpt-4-turbo",
	"gpt-4-1106-preview",
	"gpt-4-0125-preview",
	"gpt-3.5-turbo-1106",
	"gpt-4o",
	"gpt-4.1",
}

var errNoChoices = errors.New("no completion choices returned")

// Auth and validation failures do not heal by retrying and do not trip the breaker.
var openAIPolicy = resilience.HTTPPolicy{
	RetryableStatuses: []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	},
	Unclassified: resilience.ErrorClassification{Retryable: false, RecordFailure: true},
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// JSONMode forces response_format support on or off; nil infers it from the model.
	JSONMode *bool
	Timeout  time.Duration
}

// Generator implements ports.TextGenerator against an OpenAI-compatible chat completions API.
type Generator struct {
	baseURL    string
	apiKey     string
	model      string
	jsonMode   bool
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	jsonMode := supportsJSONMode(model)
	if cfg.JSONMode != nil {
		jsonMode = *cfg.JSONMode
	}
	return &Generator{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		jsonMode:   jsonMode,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}, nil
}

func supportsJSONMode(model string) bool {
	for _, candidate := range jsonModeModels {
		if strings.HasPrefix(model, candidate) {
			return true
		}
	}
	return false
}

func (g *Generator) SupportsJSON() bool {
	return g.jsonMode
}

func (g *Generator) GenerateText(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	return g.complete(ctx, prompt, opts, false)
}

func (g *Generator) GenerateJSON(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	return g.complete(ctx, prompt, opts, g.jsonMode)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature,omitempty"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (g *Generator) complete(ctx context.Context, prompt string, opts ports.GenerateOptions, jsonMode bool) (string, error) {
	system := "You are a customs classification expert specializing in the Harmonized Tariff Schedule of the United States."
	req := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if jsonMode {
		req.ResponseFormat = map[string]string{"type": "json_object"}
	}

	var response chatResponse
	err := g.executor.Execute(ctx, "openai.chat", func(ctx context.Context) error {
		return g.postJSON(ctx, "/chat/completions", req, &response)
	}, openAIPolicy.Classify)
	if err != nil {
		return "", resilience.AsTemporary("openai.chat", err, openAIPolicy.Classify)
	}
	if len(response.Choices) == 0 {
		return "", errNoChoices
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (g *Generator) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return resilience.ReadHTTPStatusError("openai", "chat", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode chat response: %w", err)
	}
	return nil
}

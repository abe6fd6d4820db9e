package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/tariff-assistant/internal/core/ports"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

const defaultTimeout = 120 * time.Second

// Model servers shed load with 5xx while loading weights; those heal on retry.
var ollamaPolicy = resilience.HTTPPolicy{
	RetryableStatuses: []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	},
	RetryOpenCircuit: true,
	Unclassified:     resilience.ErrorClassification{Retryable: false, RecordFailure: true},
}

func New(baseURL, model string) *Client {
	return NewWithExecutor(baseURL, model, 0, nil)
}

// NewWithExecutor builds a client; timeout <= 0 uses the default.
func NewWithExecutor(baseURL, model string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// Generator adapts the Ollama generate endpoint to ports.TextGenerator.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateText(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	return g.client.generate(ctx, g.client.request(prompt, opts, false), "generate_text")
}

func (g *Generator) GenerateJSON(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	raw, err := g.client.generate(ctx, g.client.request(prompt, opts, true), "generate_json")
	if err != nil {
		return "", err
	}
	return extractJSONObject(raw), nil
}

// SupportsJSON is always true: Ollama constrains output with format=json.
func (g *Generator) SupportsJSON() bool {
	return true
}

func (c *Client) request(prompt string, opts ports.GenerateOptions, jsonFormat bool) map[string]any {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	if jsonFormat {
		reqBody["format"] = "json"
	}
	options := map[string]any{}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) > 0 {
		reqBody["options"] = options
	}
	return reqBody
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any, operation string) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	err := c.executor.Execute(ctx, "ollama."+operation, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, operation)
	}, ollamaPolicy.Classify)
	if err != nil {
		return "", resilience.AsTemporary("ollama."+operation, err, ollamaPolicy.Classify)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

package usitc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/cache"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://hts.usitc.gov/reststop"
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// A malformed payload means the service answered, so it neither retries nor trips the breaker.
var lookupPolicy = resilience.HTTPPolicy{
	RetryableStatuses: []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	},
	RecordStatus: func(status int) bool {
		return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
	},
}

// FallbackObserver is notified whenever a lookup degrades to a fallback record.
type FallbackObserver func(operation string)

// Client is the tariff lookup gateway backed by the USITC HTS REST service.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	executor   *resilience.Executor
	cache      *cache.LRU[[]domain.CodeRecord]
	logger     *slog.Logger
	onFallback FallbackObserver
}

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Executor   *resilience.Executor
	// Cache stores successful query results; nil disables caching.
	Cache      *cache.LRU[[]domain.CodeRecord]
	Logger     *slog.Logger
	OnFallback FallbackObserver
}

func New(baseURL string) *Client {
	return NewWithOptions(baseURL, Options{})
}

func NewWithOptions(baseURL string, opts Options) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		httpClient: httpClient,
		executor:   opts.Executor,
		cache:      opts.Cache,
		logger:     logger,
		onFallback: opts.OnFallback,
	}
}

// Search never fails: lookup errors degrade to a single fallback record.
func (c *Client) Search(ctx context.Context, query string) []domain.CodeRecord {
	records, err := c.Lookup(ctx, query)
	if err != nil || len(records) == 0 {
		c.logger.Warn("tariff_lookup_degraded", "query", query, "error", err)
		c.notifyFallback("search")
	}
	return Degrade(query, records, err)
}

// Lookup performs the raw search and reports failures explicitly.
func (c *Client) Lookup(ctx context.Context, query string) ([]domain.CodeRecord, error) {
	if cached, ok := c.cache.Get(query); ok {
		return cached, nil
	}

	var (
		records []domain.CodeRecord
		err     error
	)
	if IsCodeQuery(query) {
		records, err = c.searchByCode(ctx, query)
	} else {
		records, err = c.searchByKeyword(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		c.cache.Add(query, records)
	}
	return records, nil
}

// Details returns the exact record for code when available, the closest match
// otherwise, and a fallback record when the lookup fails. It returns nil for a blank code.
func (c *Client) Details(ctx context.Context, code string) *domain.CodeRecord {
	clean := cleanCode(code)
	if clean == "" {
		return nil
	}

	records, err := c.Lookup(ctx, clean)
	if err == nil {
		for i := range records {
			if records[i].Code == clean {
				rec := records[i]
				return &rec
			}
		}
		if len(records) > 0 {
			rec := records[0]
			return &rec
		}
	} else {
		c.logger.Warn("tariff_details_degraded", "code", clean, "error", err)
	}

	c.notifyFallback("details")
	rec := FallbackRecord(clean)
	return &rec
}

func (c *Client) Eligibility(ctx context.Context, code, origin, destination string) domain.Eligibility {
	if !strings.EqualFold(strings.TrimSpace(destination), supportedDestination) {
		return EvaluateEligibility(nil, origin, destination)
	}
	return EvaluateEligibility(c.Details(ctx, code), origin, destination)
}

func (c *Client) searchByKeyword(ctx context.Context, query string) ([]domain.CodeRecord, error) {
	keyword := strings.ReplaceAll(query, "-", " ")
	keyword = strings.TrimRight(strings.TrimSpace(keyword), ":;,.")
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", domain.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	return c.fetch(ctx, "/search", params, "search")
}

func (c *Client) searchByCode(ctx context.Context, query string) ([]domain.CodeRecord, error) {
	code := cleanCode(query)
	prefix := code[:4]

	params := url.Values{}
	params.Set("from", prefix)
	params.Set("to", prefix+"99")
	params.Set("format", "JSON")
	params.Set("styles", "true")

	records, err := c.fetch(ctx, "/exportList", params, "export")
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(code)
	filtered := make([]domain.CodeRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(rec.Code, code) || strings.Contains(strings.ToLower(rec.Description), needle) {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, operation string) ([]domain.CodeRecord, error) {
	return resilience.Call(ctx, c.executor, "usitc."+operation, func(ctx context.Context) ([]domain.CodeRecord, error) {
		payload, err := c.getJSON(ctx, path, params, operation)
		if err != nil {
			return nil, err
		}
		records, err := normalizeRecords(payload)
		if err != nil {
			return nil, fmt.Errorf("usitc %s: %w", operation, err)
		}
		return records, nil
	}, lookupPolicy.Classify)
}

func (c *Client) notifyFallback(operation string) {
	if c.onFallback != nil {
		c.onFallback(operation)
	}
}

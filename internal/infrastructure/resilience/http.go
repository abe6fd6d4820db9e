package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

const statusBodyLimit = 2048

// HTTPStatusError is a non-success answer from a remote HTTP service.
type HTTPStatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "http status error"
	}
	prefix := strings.TrimSpace(e.Service + " " + e.Operation)
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s status: %s", prefix, e.Status)
	}
	return fmt.Sprintf("%s status: %s: %s", prefix, e.Status, strings.TrimSpace(e.Body))
}

// ReadHTTPStatusError builds an HTTPStatusError from resp, keeping the head of its body.
func ReadHTTPStatusError(service, operation string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, statusBodyLimit))
	return &HTTPStatusError{
		Service:    service,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

// HTTPPolicy classifies failures of calls to one HTTP service.
type HTTPPolicy struct {
	RetryableStatuses []int
	// RetryOpenCircuit keeps retrying while the breaker rejects calls.
	RetryOpenCircuit bool
	// RecordStatus reports whether a status counts against the breaker.
	// Nil records exactly the retryable statuses.
	RecordStatus func(status int) bool
	// Unclassified applies to errors that are neither transport nor status failures.
	Unclassified ErrorClassification
}

func (p HTTPPolicy) Classify(err error) ErrorClassification {
	if class, ok := ClassifyCommon(err, p.RetryOpenCircuit); ok {
		return class
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		retryable := slices.Contains(p.RetryableStatuses, statusErr.StatusCode)
		record := retryable
		if p.RecordStatus != nil {
			record = p.RecordStatus(statusErr.StatusCode)
		}
		return ErrorClassification{Retryable: retryable, RecordFailure: record}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return p.Unclassified
}

// ClassifyCommon handles nil, cancellation and open-circuit errors.
// ok is false when err needs a transport-specific decision.
func ClassifyCommon(err error, retryOpenCircuit bool) (ErrorClassification, bool) {
	switch {
	case err == nil:
		return ErrorClassification{}, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{Retryable: false, RecordFailure: false}, true
	case IsCircuitOpen(err):
		return ErrorClassification{Retryable: retryOpenCircuit, RecordFailure: true}, true
	}
	return ErrorClassification{}, false
}

// AsTemporary marks err as domain.ErrTemporary when it is retryable or the breaker is open.
func AsTemporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if IsCircuitOpen(err) || (classify != nil && classify(err).Retryable) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

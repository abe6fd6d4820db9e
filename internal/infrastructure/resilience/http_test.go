package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestHTTPPolicyClassify(t *testing.T) {
	policy := HTTPPolicy{
		RetryableStatuses: []int{http.StatusBadGateway, http.StatusTooManyRequests},
		RecordStatus: func(status int) bool {
			return status >= http.StatusInternalServerError
		},
		Unclassified: ErrorClassification{Retryable: false, RecordFailure: true},
	}

	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), retryable: false, record: false},
		{name: "open circuit", err: gobreaker.ErrOpenState, retryable: false, record: true},
		{name: "bad gateway", err: &HTTPStatusError{StatusCode: http.StatusBadGateway}, retryable: true, record: true},
		{name: "rate limited", err: &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, retryable: true, record: false},
		{name: "internal error", err: &HTTPStatusError{StatusCode: http.StatusInternalServerError}, retryable: false, record: true},
		{name: "bad request", err: fmt.Errorf("wrapped: %w", &HTTPStatusError{StatusCode: http.StatusBadRequest}), retryable: false, record: false},
		{name: "network", err: fmt.Errorf("dial: %w", timeoutError{}), retryable: true, record: true},
		{name: "decode", err: errors.New("unexpected end of JSON input"), retryable: false, record: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.Classify(tc.err)
			if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
				t.Fatalf("unexpected classification %+v", got)
			}
		})
	}
}

func TestHTTPPolicyRecordsRetryableStatusesByDefault(t *testing.T) {
	policy := HTTPPolicy{RetryableStatuses: []int{http.StatusServiceUnavailable}, RetryOpenCircuit: true}

	if got := policy.Classify(&HTTPStatusError{StatusCode: http.StatusServiceUnavailable}); !got.Retryable || !got.RecordFailure {
		t.Fatalf("expected retryable recorded failure, got %+v", got)
	}
	if got := policy.Classify(&HTTPStatusError{StatusCode: http.StatusNotFound}); got.Retryable || got.RecordFailure {
		t.Fatalf("expected ignored permanent failure, got %+v", got)
	}
	if got := policy.Classify(gobreaker.ErrTooManyRequests); !got.Retryable {
		t.Fatalf("expected open circuit to be retried, got %+v", got)
	}
}

func TestReadHTTPStatusErrorKeepsBodyHead(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadGateway,
		Status:     "502 Bad Gateway",
		Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", statusBodyLimit+100))),
	}

	err := ReadHTTPStatusError("usitc", "search", resp)
	if err.StatusCode != http.StatusBadGateway || len(err.Body) != statusBodyLimit {
		t.Fatalf("unexpected status error %+v", err)
	}
	if !strings.HasPrefix(err.Error(), "usitc search status: 502 Bad Gateway: xxx") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAsTemporary(t *testing.T) {
	policy := HTTPPolicy{RetryableStatuses: []int{http.StatusBadGateway}}

	retryable := &HTTPStatusError{StatusCode: http.StatusBadGateway}
	if err := AsTemporary("op", retryable, policy.Classify); !domain.IsKind(err, domain.ErrTemporary) || !errors.As(err, new(*HTTPStatusError)) {
		t.Fatalf("expected temporary wrap, got %v", err)
	}
	if err := AsTemporary("op", gobreaker.ErrOpenState, nil); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected open circuit to be temporary, got %v", err)
	}
	permanent := &HTTPStatusError{StatusCode: http.StatusUnauthorized}
	if err := AsTemporary("op", permanent, policy.Classify); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error unchanged, got %v", err)
	}
	if err := AsTemporary("op", nil, policy.Classify); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

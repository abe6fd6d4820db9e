package usitc

import (
	"errors"
	"testing"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

func TestIsCodeQuery(t *testing.T) {
	cases := map[string]bool{
		"8708":            true,
		"8708.10":         true,
		"8708.10.30":      true,
		" 3926.90 ":       true,
		"870":             false,
		"bumper retainer": false,
		"part 8708":       false,
	}
	for query, want := range cases {
		if got := IsCodeQuery(query); got != want {
			t.Fatalf("IsCodeQuery(%q) = %v, want %v", query, got, want)
		}
	}
}

func TestDegradeReturnsSingleFallbackOnError(t *testing.T) {
	got := Degrade("plastic clip", nil, errors.New("connection refused"))
	if len(got) != 1 {
		t.Fatalf("expected exactly one fallback record, got %d", len(got))
	}
	if !got[0].IsFallback || got[0].Code != noMatchCode {
		t.Fatalf("unexpected fallback record: %+v", got[0])
	}
}

func TestDegradeEchoesCodeLikeQuery(t *testing.T) {
	got := Degrade(" 8708.10.30 ", nil, nil)
	if len(got) != 1 || got[0].Code != "8708.10.30" || !got[0].IsFallback {
		t.Fatalf("unexpected fallback: %+v", got)
	}
	if got[0].Description != codeUnavailableDescription {
		t.Fatalf("unexpected description %q", got[0].Description)
	}
}

func TestDegradePassesThroughResults(t *testing.T) {
	records := []domain.CodeRecord{{Code: "3926.90.99"}}
	got := Degrade("plastic", records, nil)
	if len(got) != 1 || got[0].IsFallback {
		t.Fatalf("expected results unchanged, got %+v", got)
	}
}

package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

func TestSaveAndGetReturnsIndependentCopy(t *testing.T) {
	repo, err := NewAnalysisRepository(4)
	if err != nil {
		t.Fatalf("NewAnalysisRepository() error = %v", err)
	}
	ctx := context.Background()

	original := &domain.AnalysisResult{
		ID:          "an-1",
		Description: "bumper clip",
		Candidates:  []domain.Candidate{{CodeRecord: domain.CodeRecord{Code: "3926.90.99"}}},
	}
	if err := repo.Save(ctx, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	original.Candidates[0].Code = "mutated"

	got, err := repo.GetByID(ctx, "an-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Candidates[0].Code != "3926.90.99" {
		t.Fatalf("expected stored snapshot, got %q", got.Candidates[0].Code)
	}
}

func TestGetByIDEvictedOrMissing(t *testing.T) {
	repo, err := NewAnalysisRepository(1)
	if err != nil {
		t.Fatalf("NewAnalysisRepository() error = %v", err)
	}
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.AnalysisResult{ID: "an-1"})
	_ = repo.Save(ctx, &domain.AnalysisResult{ID: "an-2"})

	if _, err := repo.GetByID(ctx, "an-1"); !domain.IsKind(err, domain.ErrAnalysisNotFound) {
		t.Fatalf("expected evicted analysis to be not found, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "an-2"); err != nil {
		t.Fatalf("expected latest analysis, got %v", err)
	}
}

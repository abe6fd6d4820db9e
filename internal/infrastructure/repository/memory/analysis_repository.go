package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/infrastructure/cache"
)

// AnalysisRepository keeps the most recent analyses in process memory. Results are
// stored as JSON snapshots so callers never share mutable state with the store.
type AnalysisRepository struct {
	items *cache.LRU[[]byte]
}

func NewAnalysisRepository(capacity int) (*AnalysisRepository, error) {
	items, err := cache.NewLRU[[]byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("create analysis store: %w", err)
	}
	return &AnalysisRepository{items: items}, nil
}

func (r *AnalysisRepository) Save(_ context.Context, result *domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	r.items.Add(result.ID, payload)
	return nil
}

func (r *AnalysisRepository) GetByID(_ context.Context, id string) (*domain.AnalysisResult, error) {
	payload, ok := r.items.Get(id)
	if !ok {
		return nil, domain.WrapError(domain.ErrAnalysisNotFound, "get analysis", fmt.Errorf("analysis %s", id))
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &result, nil
}

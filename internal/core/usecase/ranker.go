package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

const (
	defaultConfidenceTopN    = 10
	defaultLookupConcurrency = 4
)

type RankRequest struct {
	Description string
	Origin      string
	Destination string
	Terms       []string
	Analysis    *domain.ProductAnalysis
}

type RankerConfig struct {
	// Weights defaults to DefaultRelevanceWeights when nil.
	Weights        *RelevanceWeights
	ConfidenceTopN int
	Concurrency    int
}

// CandidateRanker merges lookup results for all search terms and orders them by
// relevance and model confidence.
type CandidateRanker struct {
	lookup         ports.TariffLookup
	generator      ports.TextGenerator
	weights        RelevanceWeights
	confidenceTopN int
	concurrency    int
	observer       ports.PipelineObserver
	logger         *slog.Logger
}

func NewCandidateRanker(
	lookup ports.TariffLookup,
	generator ports.TextGenerator,
	cfg RankerConfig,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *CandidateRanker {
	weights := DefaultRelevanceWeights()
	if cfg.Weights != nil {
		weights = *cfg.Weights
	}
	if cfg.ConfidenceTopN <= 0 {
		cfg.ConfidenceTopN = defaultConfidenceTopN
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultLookupConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateRanker{
		lookup:         lookup,
		generator:      generator,
		weights:        weights,
		confidenceTopN: cfg.ConfidenceTopN,
		concurrency:    cfg.Concurrency,
		observer:       observer,
		logger:         logger,
	}
}

// Rank is deterministic for identical lookup and model responses.
func (r *CandidateRanker) Rank(ctx context.Context, req RankRequest) []domain.Candidate {
	terms := req.Terms
	if len(terms) == 0 {
		terms = []string{req.Description}
	}

	merged := mergeCandidates(r.searchAll(ctx, terms))
	ranked := filterByRelevance(req.Description, terms, merged, r.weights)
	ranked = r.assessConfidence(ctx, req, ranked)
	if req.Analysis != nil {
		for i := range ranked {
			ranked[i] = enrichConfidence(ranked[i], req.Description, req.Analysis)
		}
	}
	sortCandidates(ranked)

	if r.observer != nil {
		r.observer.ObserveRanking(len(ranked), allFallback(ranked))
	}
	return ranked
}

// searchAll queries every term with bounded parallelism; results keep term order.
func (r *CandidateRanker) searchAll(ctx context.Context, terms []string) []termHits {
	batches := make([]termHits, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, term := range terms {
		batches[i].term = term
		if strings.TrimSpace(term) == "" {
			continue
		}
		g.Go(func() error {
			batches[i].records = r.lookup.Search(gctx, term)
			return nil
		})
	}
	_ = g.Wait()
	return batches
}

// sortCandidates orders by relevance, then confidence, then code. Unset scores compare
// equal, so the order degrades to whichever keys are present.
func sortCandidates(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		if ri, rj := candidates[i].Confidence.Rank(), candidates[j].Confidence.Rank(); ri != rj {
			return ri > rj
		}
		return candidates[i].Code < candidates[j].Code
	})
}

func allFallback(candidates []domain.Candidate) bool {
	if len(candidates) == 0 {
		return false
	}
	for _, c := range candidates {
		if !c.IsFallback {
			return false
		}
	}
	return true
}

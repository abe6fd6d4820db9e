package usecase

import (
	"slices"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

// termHits are the lookup results produced by one search term.
type termHits struct {
	term    string
	records []domain.CodeRecord
}

// mergeCandidates tags every hit with its source term and deduplicates by code.
// The first record seen for a code wins; source terms accumulate in order.
func mergeCandidates(batches []termHits) []domain.Candidate {
	candidates := make([]domain.Candidate, 0)
	for _, batch := range batches {
		for _, rec := range batch.records {
			candidates = append(candidates, domain.Candidate{
				CodeRecord:  rec,
				SourceTerms: []string{batch.term},
			})
		}
	}
	return dedupeCandidates(candidates)
}

// dedupeCandidates is idempotent: deduplicating its own output changes nothing.
func dedupeCandidates(candidates []domain.Candidate) []domain.Candidate {
	index := make(map[string]int, len(candidates))
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Code == "" {
			continue
		}
		if i, ok := index[c.Code]; ok {
			out[i].SourceTerms = appendUnique(out[i].SourceTerms, c.SourceTerms...)
			continue
		}
		c.SourceTerms = appendUnique(nil, c.SourceTerms...)
		index[c.Code] = len(out)
		out = append(out, c)
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" || slices.Contains(dst, v) {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

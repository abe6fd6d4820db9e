package domain

import "time"

// ProductAnalysis is the structured output of query expansion.
type ProductAnalysis struct {
	Materials      []string `json:"materials"`
	Function       string   `json:"function"`
	IndustryTerms  []string `json:"industry_terms"`
	HTSTerminology string   `json:"hts_terminology"`
	CandidateCodes []string `json:"candidate_codes"`
	SearchTerms    []string `json:"search_terms"`
}

type AnalysisResult struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	SearchTerms []string         `json:"search_terms"`
	Candidates  []Candidate      `json:"candidates"`
	Analysis    *ProductAnalysis `json:"analysis,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TopCandidate returns the best ranked candidate, if any.
func (r *AnalysisResult) TopCandidate() (Candidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ClassificationAnalysis is the analysis summary attached to a tariff document.
type ClassificationAnalysis struct {
	Materials        []string       `json:"materials"`
	Function         string         `json:"function"`
	IndustryTerms    []string       `json:"industry_terms"`
	HTSTerminology   string         `json:"hts_terminology"`
	Confidence       Confidence     `json:"confidence,omitempty"`
	ConfidenceReason string         `json:"confidence_reason,omitempty"`
	Evidence         *MatchEvidence `json:"evidence,omitempty"`
}

type TariffDocument struct {
	ProductDescription string                  `json:"product_description"`
	Record             CodeRecord              `json:"record"`
	Origin             Country                 `json:"origin"`
	Destination        Country                 `json:"destination"`
	Eligibility        Eligibility             `json:"eligibility"`
	Agreements         []TradeAgreement        `json:"trade_agreements,omitempty"`
	Explanation        string                  `json:"explanation"`
	Analysis           *ClassificationAnalysis `json:"classification_analysis,omitempty"`
	Strategies         *StrategyReport         `json:"strategies,omitempty"`
}

type TradeAgreement struct {
	Code        string   `json:"code" yaml:"code"`
	Name        string   `json:"name" yaml:"name"`
	Members     []string `json:"members" yaml:"members"`
	Description string   `json:"description" yaml:"description"`
}

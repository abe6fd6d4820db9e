package domain

// CodeRecord is one harmonized tariff schedule entry as returned by the lookup service.
type CodeRecord struct {
	Code           string `json:"code"`
	Description    string `json:"description"`
	Rates          Rates  `json:"rates"`
	Unit           string `json:"unit,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
	// IsFallback is set when the record was synthesized because the lookup failed.
	IsFallback bool `json:"is_fallback"`
}

type Rates struct {
	General string            `json:"general"`
	Special map[string]string `json:"special,omitempty"`
	Column2 string            `json:"column2"`
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Rank orders confidence levels; unset confidence ranks zero.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Candidate is a CodeRecord decorated with the ranking pipeline's transient fields.
type Candidate struct {
	CodeRecord
	SourceTerms      []string       `json:"source_terms"`
	RelevanceScore   int            `json:"relevance_score,omitempty"`
	Scored           bool           `json:"scored"`
	Confidence       Confidence     `json:"confidence,omitempty"`
	ConfidenceReason string         `json:"confidence_reason,omitempty"`
	Evidence         *MatchEvidence `json:"evidence,omitempty"`
}

type MatchEvidence struct {
	Materials       []string `json:"materials"`
	Function        string   `json:"function"`
	IndustryTerms   []string `json:"industry_terms"`
	MaterialMatches []string `json:"material_matches"`
	FunctionMatch   bool     `json:"function_match"`
}

type AgreementEligibility struct {
	Name         string `json:"name"`
	Rate         string `json:"rate"`
	Requirements string `json:"requirements"`
}

type Eligibility struct {
	Agreements []AgreementEligibility `json:"eligible_agreements"`
	Details    string                 `json:"details"`
}

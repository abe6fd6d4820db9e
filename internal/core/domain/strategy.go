package domain

type StrategyKind string

const (
	StrategyOriginShift       StrategyKind = "origin_shift"
	StrategyDrawback          StrategyKind = "drawback"
	StrategyFirstSale         StrategyKind = "first_sale"
	StrategyDiversification   StrategyKind = "diversification"
	StrategyTariffEngineering StrategyKind = "tariff_engineering"
)

type Strategy struct {
	Kind           StrategyKind `json:"kind"`
	Name           string       `json:"name"`
	Mechanism      string       `json:"mechanism"`
	Implementation []string     `json:"implementation"`
	Impact         string       `json:"impact"`
	Savings        float64      `json:"savings"`
	SavingsNote    string       `json:"savings_note,omitempty"`
}

type StrategyReport struct {
	Code        string     `json:"code"`
	ImportValue float64    `json:"import_value"`
	GeneralRate string     `json:"general_rate"`
	DutyRate    float64    `json:"duty_rate"`
	AnnualDuty  float64    `json:"annual_duty"`
	Strategies  []Strategy `json:"strategies"`
}

type ReportState string

const (
	ReportPending ReportState = "pending"
	ReportReady   ReportState = "ready"
)

type ReportStatus struct {
	AnalysisID string      `json:"analysis_id"`
	State      ReportState `json:"state"`
	Location   string      `json:"location,omitempty"`
}

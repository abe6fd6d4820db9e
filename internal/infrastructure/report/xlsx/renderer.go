package xlsx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/format"
)

const (
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetSummary    = "Summary"
	sheetCandidates = "Candidates"
	sheetStrategies = "Strategies"
)

var errNilAnalysis = errors.New("analysis is required")

// Renderer writes an analysis as a workbook with Summary, Candidates and Strategies sheets.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) ContentType() string { return contentType }

func (r *Renderer) Extension() string { return ".xlsx" }

func (r *Renderer) Render(result *domain.AnalysisResult, strategies *domain.StrategyReport) ([]byte, error) {
	if result == nil {
		return nil, errNilAnalysis
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &workbook{file: f, header: header}
	summary := w.sheet(sheetSummary)
	w.write(summary, summaryRows(result))
	w.columns(summary, map[string]float64{"A": 22, "B": 80})

	candidates := w.sheet(sheetCandidates)
	w.write(candidates, candidateRows(result.Candidates))
	w.styleHeader(candidates, 7)
	w.columns(candidates, map[string]float64{"A": 14, "B": 60, "C": 14, "D": 10, "E": 12, "F": 60, "G": 40})

	strategiesSheet := w.sheet(sheetStrategies)
	w.write(strategiesSheet, strategyRows(strategies))
	w.styleHeader(strategiesSheet, 5)
	w.columns(strategiesSheet, map[string]float64{"A": 28, "B": 60, "C": 40, "D": 18, "E": 30})

	if w.err != nil {
		return nil, w.err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// workbook accumulates the first excelize error so sheet assembly reads linearly.
type workbook struct {
	file   *excelize.File
	header int
	err    error
}

func (w *workbook) sheet(name string) string {
	if w.err != nil {
		return name
	}
	if _, err := w.file.NewSheet(name); err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", name, err)
	}
	return name
}

func (w *workbook) write(sheet string, rows [][]any) {
	for i, row := range rows {
		if w.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			w.err = err
			return
		}
		if err := w.file.SetSheetRow(sheet, cell, &row); err != nil {
			w.err = fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
}

func (w *workbook) styleHeader(sheet string, columns int) {
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.file.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
	}
}

func (w *workbook) columns(sheet string, widths map[string]float64) {
	for col, width := range widths {
		if w.err != nil {
			return
		}
		if err := w.file.SetColWidth(sheet, col, col, width); err != nil {
			w.err = fmt.Errorf("size %s column %s: %w", sheet, col, err)
		}
	}
}

func summaryRows(result *domain.AnalysisResult) [][]any {
	rows := [][]any{
		{"Analysis ID", result.ID},
		{"Product", result.Description},
		{"Trade lane", result.Origin + " → " + result.Destination},
		{"Created", result.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")},
		{"Search terms", strings.Join(result.SearchTerms, "; ")},
	}
	if top, ok := result.TopCandidate(); ok {
		rows = append(rows,
			[]any{"Top code", top.Code},
			[]any{"Top description", top.Description},
			[]any{"General rate", top.Rates.General},
			[]any{"Confidence", string(top.Confidence)},
		)
	}
	if a := result.Analysis; a != nil {
		rows = append(rows,
			[]any{"Materials", strings.Join(a.Materials, ", ")},
			[]any{"Function", a.Function},
			[]any{"HTS terminology", a.HTSTerminology},
		)
	}
	return rows
}

func candidateRows(candidates []domain.Candidate) [][]any {
	rows := [][]any{{"Code", "Description", "General rate", "Relevance", "Confidence", "Reason", "Search terms"}}
	for _, c := range candidates {
		var relevance any = ""
		if c.Scored {
			relevance = c.RelevanceScore
		}
		rows = append(rows, []any{
			c.Code,
			c.Description,
			c.Rates.General,
			relevance,
			string(c.Confidence),
			c.ConfidenceReason,
			strings.Join(c.SourceTerms, "; "),
		})
	}
	return rows
}

func strategyRows(report *domain.StrategyReport) [][]any {
	rows := [][]any{{"Strategy", "Mechanism", "Impact", "Estimated savings", "Note"}}
	if report == nil {
		return rows
	}
	for _, s := range report.Strategies {
		rows = append(rows, []any{s.Name, s.Mechanism, s.Impact, format.Money(s.Savings), s.SavingsNote})
	}
	rows = append(rows,
		[]any{},
		[]any{"Code", report.Code},
		[]any{"Import value", format.Money(report.ImportValue)},
		[]any{"Duty rate", format.Rate(report.DutyRate)},
		[]any{"Annual duty", format.Money(report.AnnualDuty)},
	)
	return rows
}

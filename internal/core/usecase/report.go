package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

// ReportUseCase renders stored analyses into downloadable reports, either inline or
// through the report queue when one is configured.
type ReportUseCase struct {
	repo     ports.AnalysisRepository
	composer *StrategyComposer
	renderer ports.ReportRenderer
	storage  ports.ObjectStorage
	queue    ports.ReportQueue
}

func NewReportUseCase(
	repo ports.AnalysisRepository,
	composer *StrategyComposer,
	renderer ports.ReportRenderer,
	storage ports.ObjectStorage,
	queue ports.ReportQueue,
) *ReportUseCase {
	if composer == nil {
		composer = NewStrategyComposer(DefaultImportValue)
	}
	return &ReportUseCase{
		repo:     repo,
		composer: composer,
		renderer: renderer,
		storage:  storage,
		queue:    queue,
	}
}

func (uc *ReportUseCase) RequestReport(ctx context.Context, analysisID string) (*domain.ReportStatus, error) {
	analysisID = strings.TrimSpace(analysisID)
	if analysisID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "request report", fmt.Errorf("analysis id is required"))
	}
	if _, err := uc.repo.GetByID(ctx, analysisID); err != nil {
		return nil, err
	}

	if uc.queue != nil {
		if err := uc.queue.PublishReportRequested(ctx, analysisID); err != nil {
			return nil, fmt.Errorf("publish report request: %w", err)
		}
		return &domain.ReportStatus{AnalysisID: analysisID, State: domain.ReportPending}, nil
	}

	if err := uc.ExportByID(ctx, analysisID); err != nil {
		return nil, err
	}
	return &domain.ReportStatus{
		AnalysisID: analysisID,
		State:      domain.ReportReady,
		Location:   uc.reportKey(analysisID),
	}, nil
}

// ExportByID renders the report for a stored analysis and writes it to object storage.
func (uc *ReportUseCase) ExportByID(ctx context.Context, analysisID string) error {
	result, err := uc.repo.GetByID(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}

	var strategies *domain.StrategyReport
	if top, ok := result.TopCandidate(); ok {
		report := uc.composer.Compose(top.CodeRecord)
		strategies = &report
	}

	content, err := uc.renderer.Render(result, strategies)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := uc.storage.Save(ctx, uc.reportKey(analysisID), bytes.NewReader(content)); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (uc *ReportUseCase) OpenReport(ctx context.Context, analysisID string) (io.ReadCloser, string, error) {
	analysisID = strings.TrimSpace(analysisID)
	if analysisID == "" {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "open report", fmt.Errorf("analysis id is required"))
	}
	rc, err := uc.storage.Open(ctx, uc.reportKey(analysisID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", domain.WrapError(domain.ErrReportNotFound, "open report", err)
		}
		return nil, "", fmt.Errorf("open report: %w", err)
	}
	return rc, uc.renderer.ContentType(), nil
}

func (uc *ReportUseCase) reportKey(analysisID string) string {
	return "reports/" + analysisID + uc.renderer.Extension()
}

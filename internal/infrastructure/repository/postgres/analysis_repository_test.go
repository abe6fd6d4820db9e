package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &AnalysisRepository{db: db}, mock, func() { _ = db.Close() }
}

func sampleAnalysis() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ID:          "an-1",
		Description: "bumper clip",
		Origin:      "MX",
		Destination: "US",
		SearchTerms: []string{"bumper clip"},
		Candidates: []domain.Candidate{{
			CodeRecord: domain.CodeRecord{Code: "3926.90.99", Description: "Other articles of plastics"},
			Confidence: domain.ConfidenceHigh,
		}},
		CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT payload FROM analyses").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesPayload(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	payload, err := json.Marshal(sampleAnalysis())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mock.ExpectQuery("SELECT payload FROM analyses").
		WithArgs("an-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := repo.GetByID(context.Background(), "an-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	top, ok := got.TopCandidate()
	if !ok || top.Code != "3926.90.99" || top.Confidence != domain.ConfidenceHigh {
		t.Fatalf("unexpected top candidate %+v", top)
	}
	if !got.CreatedAt.Equal(sampleAnalysis().CreatedAt) {
		t.Fatalf("unexpected created_at %v", got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveUpsertsWithTopCode(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	result := sampleAnalysis()
	mock.ExpectExec("INSERT INTO analyses").
		WithArgs("an-1", "bumper clip", "MX", "US", "3926.90.99", sqlmock.AnyArg(), result.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), result); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveWrapsExecError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	errDown := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO analyses").WillReturnError(errDown)

	err := repo.Save(context.Background(), sampleAnalysis())
	if !errors.Is(err, errDown) {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analyses").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

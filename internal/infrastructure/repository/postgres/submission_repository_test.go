package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*SubmissionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SubmissionRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateInsertsSubmission(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	sub := &domain.Submission{
		ID:         "sub-1",
		RecordID:   domain.StringID("rec-1"),
		DocumentID: domain.NumberID(7),
		MIMEType:   "application/pdf",
		Extension:  "pdf",
		SizeBytes:  1024,
		Status:     domain.StatusAccepted,
		Confidence: 0.95,
		Reason:     "PDF document - Accepted",
		StorageKey: "record_rec-1_doc_7_20260825_120000_abcdef01.pdf",
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO submissions").
		WithArgs(
			sub.ID, "rec-1", "7", sub.MIMEType, sub.Extension,
			sub.SizeBytes, string(sub.Status), sub.Confidence, sub.Reason, sub.StorageKey, sub.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsSubmissionNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, record_id, document_id, mime_type").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansSubmission(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "record_id", "document_id", "mime_type", "extension",
		"size_bytes", "status", "confidence", "reason", "storage_key", "created_at",
	}).AddRow(
		"sub-1", "rec-1", "7", "application/pdf", "pdf",
		int64(1024), "accepted", 0.95, "PDF document - Accepted", "record_rec-1_doc_7_x.pdf", created,
	)

	mock.ExpectQuery("SELECT id, record_id, document_id, mime_type").
		WithArgs("sub-1").
		WillReturnRows(rows)

	sub, err := repo.GetByID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sub.Status != domain.StatusAccepted {
		t.Fatalf("expected accepted, got %s", sub.Status)
	}
	if sub.RecordID.String() != "rec-1" || sub.DocumentID.String() != "7" {
		t.Fatalf("unexpected ids: %s / %s", sub.RecordID.String(), sub.DocumentID.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteByStorageKeyIsIdempotent(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE submissions").
		WithArgs("unknown-key.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByStorageKey(context.Background(), "unknown-key.pdf"); err != nil {
		t.Fatalf("DeleteByStorageKey() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

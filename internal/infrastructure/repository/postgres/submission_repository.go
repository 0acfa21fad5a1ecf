package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	record_id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	extension TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	status TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	reason TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	deleted_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_storage_key ON submissions(storage_key);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO submissions (
	id, record_id, document_id, mime_type, extension, size_bytes, status, confidence, reason, storage_key, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		sub.ID, sub.RecordID.String(), sub.DocumentID.String(), sub.MIMEType, sub.Extension,
		sub.SizeBytes, string(sub.Status), sub.Confidence, sub.Reason, sub.StorageKey, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, record_id, document_id, mime_type, extension, size_bytes, status, confidence, reason, storage_key, created_at
FROM submissions
WHERE id = $1 AND deleted_at IS NULL
`, id)

	var sub domain.Submission
	var recordID, documentID, status string

	err := row.Scan(
		&sub.ID, &recordID, &documentID, &sub.MIMEType, &sub.Extension,
		&sub.SizeBytes, &status, &sub.Confidence, &sub.Reason, &sub.StorageKey, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission", err)
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	sub.RecordID = domain.StringID(recordID)
	sub.DocumentID = domain.StringID(documentID)
	sub.Status = domain.SubmissionStatus(status)
	return &sub, nil
}

// DeleteByStorageKey tombstones the submission owning a storage key. Zero
// affected rows is not an error: tombstoning is idempotent and files may
// predate the index.
func (r *SubmissionRepository) DeleteByStorageKey(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE submissions
SET deleted_at = $2
WHERE storage_key = $1 AND deleted_at IS NULL
`, key, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("tombstone submission: %w", err)
	}
	return nil
}

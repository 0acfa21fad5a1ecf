package ports

import (
	"context"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

// SubmissionProcessor is the inbound contract for processing one base64
// document submission end to end.
type SubmissionProcessor interface {
	Process(ctx context.Context, req domain.ProcessingRequest) (*domain.ProcessingResult, error)
}

// StoredFileCleaner removes a stored temp file by its generated key.
type StoredFileCleaner interface {
	Cleanup(ctx context.Context, key string) error
}

// SubmissionReader is the inbound read model for recorded submissions.
type SubmissionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
}

// RetentionEnforcer deletes stored files that outlived the retention window.
type RetentionEnforcer interface {
	Sweep(ctx context.Context) (int, error)
}

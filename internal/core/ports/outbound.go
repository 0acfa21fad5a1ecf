package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

// ObjectStorage stores document backups under generated keys.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	List(ctx context.Context) ([]domain.StoredObject, error)
}

// SubmissionRepository persists and reads submission audit records.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	DeleteByStorageKey(ctx context.Context, key string) error
}

// TypeDetector infers a file type from the raw payload and its decoded bytes.
// The raw payload is consulted only for a leading data: URL header.
type TypeDetector interface {
	Detect(payload string, decoded []byte) domain.FileType
}

// Classifier resolves a detected MIME type to its verdict rule. Every MIME
// type resolves to some rule; there is no unknown outcome.
type Classifier interface {
	Classify(mimeType string) domain.ClassificationRule
}

// EventPublisher announces and consumes processed-submission events.
type EventPublisher interface {
	PublishSubmissionProcessed(ctx context.Context, sub *domain.Submission) error
	SubscribeSubmissionProcessed(ctx context.Context, handler func(context.Context, domain.SubmissionEvent) error) error
}

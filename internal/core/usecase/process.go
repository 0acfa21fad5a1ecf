package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-handler/internal/core/domain"
	"github.com/kirillkom/document-handler/internal/core/ports"
)

type ProcessSubmissionUseCase struct {
	repo       ports.SubmissionRepository
	storage    ports.ObjectStorage
	detector   ports.TypeDetector
	classifier ports.Classifier
	queue      ports.EventPublisher
	maxBytes   int64
}

func NewProcessSubmissionUseCase(
	repo ports.SubmissionRepository,
	storage ports.ObjectStorage,
	detector ports.TypeDetector,
	classifier ports.Classifier,
	queue ports.EventPublisher,
	maxBytes int64,
) *ProcessSubmissionUseCase {
	return &ProcessSubmissionUseCase{
		repo:       repo,
		storage:    storage,
		detector:   detector,
		classifier: classifier,
		queue:      queue,
		maxBytes:   maxBytes,
	}
}

// Process decodes the payload, classifies it and persists the backup copy.
// Rejected documents are persisted too: the stored file is a processing
// backup, not a quarantine decision.
func (uc *ProcessSubmissionUseCase) Process(ctx context.Context, req domain.ProcessingRequest) (*domain.ProcessingResult, error) {
	payload := strings.TrimSpace(req.Base64Data)
	if payload == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New("base64_data is required"))
	}

	decoded, err := decodePayload(payload)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode base64", err)
	}
	if len(decoded) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate payload", errors.New("empty file data"))
	}
	if uc.maxBytes > 0 && int64(len(decoded)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate payload",
			fmt.Errorf("document of %d bytes exceeds limit of %d bytes", len(decoded), uc.maxBytes))
	}

	fileType := uc.detector.Detect(payload, decoded)
	rule := uc.classifier.Classify(fileType.MIMEType)

	now := time.Now().UTC()
	storageKey := buildStorageKey(req.RecordID, req.DocumentID, fileType.Extension, now)

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(decoded)); err != nil {
		return nil, fmt.Errorf("save document backup: %w", err)
	}

	sub := &domain.Submission{
		ID:         uuid.NewString(),
		RecordID:   req.RecordID,
		DocumentID: req.DocumentID,
		MIMEType:   fileType.MIMEType,
		Extension:  fileType.Extension,
		SizeBytes:  int64(len(decoded)),
		Status:     rule.Decision,
		Confidence: rule.Confidence,
		Reason:     rule.Reason,
		StorageKey: storageKey,
		CreatedAt:  now,
	}
	if err := uc.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}

	// Event delivery is best-effort; the verdict is already durable.
	if err := uc.queue.PublishSubmissionProcessed(ctx, sub); err != nil {
		slog.Warn("publish_submission_event_failed", "submission_id", sub.ID, "error", err)
	}

	return &domain.ProcessingResult{
		RecordID:        req.RecordID,
		DocumentID:      req.DocumentID,
		Status:          rule.Decision,
		ConfidenceScore: rule.Confidence,
		Reason:          rule.Reason,
		MIMEType:        fileType.MIMEType,
		SizeBytes:       int64(len(decoded)),
	}, nil
}

// decodePayload strips an optional data: URL prefix and strictly decodes the
// remainder.
func decodePayload(payload string) ([]byte, error) {
	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		_, rest, found := strings.Cut(payload, ",")
		if !found {
			return nil, errors.New("data URL without payload")
		}
		encoded = rest
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// buildStorageKey generates record_{rid}_doc_{did}_{timestamp}_{uuid8}.{ext}.
func buildStorageKey(recordID, documentID domain.FlexID, extension string, now time.Time) string {
	return fmt.Sprintf("record_%s_doc_%s_%s_%s.%s",
		sanitizeIDSegment(recordID.String()),
		sanitizeIDSegment(documentID.String()),
		now.Format("20060102_150405"),
		uuid.NewString()[:8],
		extension,
	)
}

func sanitizeIDSegment(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

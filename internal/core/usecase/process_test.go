package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

type repoFake struct {
	created   *domain.Submission
	createErr error
	tombstone []string
	deleteErr error
}

func (f *repoFake) Create(_ context.Context, sub *domain.Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = sub
	return nil
}

func (f *repoFake) GetByID(context.Context, string) (*domain.Submission, error) {
	return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission", errors.New("not found"))
}

func (f *repoFake) DeleteByStorageKey(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.tombstone = append(f.tombstone, key)
	return nil
}

type storageFake struct {
	savedKey   string
	savedBytes []byte
	saveErr    error
	removed    []string
	removeErr  error
	objects    []domain.StoredObject
	listErr    error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBytes = raw
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.savedBytes)), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, key)
	return nil
}

func (f *storageFake) List(context.Context) ([]domain.StoredObject, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

type detectorFake struct {
	fileType domain.FileType
}

func (f detectorFake) Detect(string, []byte) domain.FileType { return f.fileType }

type classifierFake struct {
	rule domain.ClassificationRule
}

func (f classifierFake) Classify(mimeType string) domain.ClassificationRule {
	rule := f.rule
	rule.MIMEType = mimeType
	return rule
}

type queueFake struct {
	published  []*domain.Submission
	publishErr error
}

func (f *queueFake) PublishSubmissionProcessed(_ context.Context, sub *domain.Submission) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, sub)
	return nil
}

func (f *queueFake) SubscribeSubmissionProcessed(context.Context, func(context.Context, domain.SubmissionEvent) error) error {
	return nil
}

func pdfRule() domain.ClassificationRule {
	return domain.ClassificationRule{
		MIMEType:   "application/pdf",
		Confidence: 0.95,
		Decision:   domain.StatusAccepted,
		Reason:     "PDF document - Accepted",
	}
}

func newProcessUC(repo *repoFake, storage *storageFake, queue *queueFake, maxBytes int64) *ProcessSubmissionUseCase {
	return NewProcessSubmissionUseCase(
		repo,
		storage,
		detectorFake{fileType: domain.FileType{MIMEType: "application/pdf", Extension: "pdf"}},
		classifierFake{rule: pdfRule()},
		queue,
		maxBytes,
	)
}

func TestProcessAcceptedDocument(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := newProcessUC(repo, storage, queue, 0)

	original := []byte("%PDF-1.4 fake pdf body")
	req := domain.ProcessingRequest{
		RecordID:   domain.StringID("rec-1"),
		DocumentID: domain.NumberID(77),
		Base64Data: base64.StdEncoding.EncodeToString(original),
	}

	result, err := uc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.StatusAccepted {
		t.Fatalf("expected accepted, got %s", result.Status)
	}
	if result.ConfidenceScore != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", result.ConfidenceScore)
	}
	if result.Reason != "PDF document - Accepted" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if result.SizeBytes != int64(len(original)) {
		t.Fatalf("expected size %d, got %d", len(original), result.SizeBytes)
	}

	// Round-trip: the stored bytes are exactly what the caller encoded.
	if !bytes.Equal(storage.savedBytes, original) {
		t.Fatalf("stored bytes differ from original payload")
	}

	keyPattern := regexp.MustCompile(`^record_rec-1_doc_77_\d{8}_\d{6}_[0-9a-f]{8}\.pdf$`)
	if !keyPattern.MatchString(storage.savedKey) {
		t.Fatalf("storage key %q does not match generated filename pattern", storage.savedKey)
	}

	if repo.created == nil {
		t.Fatalf("expected submission record")
	}
	if repo.created.StorageKey != storage.savedKey {
		t.Fatalf("submission storage key %q != saved key %q", repo.created.StorageKey, storage.savedKey)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(queue.published))
	}
}

func TestProcessRejectedDocumentIsStillStored(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewProcessSubmissionUseCase(
		repo,
		storage,
		detectorFake{fileType: domain.FileType{MIMEType: "application/octet-stream", Extension: "bin"}},
		classifierFake{rule: domain.ClassificationRule{
			Confidence: 0.3,
			Decision:   domain.StatusRejected,
			Reason:     "File type 'application/octet-stream' not in accepted list - Rejected",
		}},
		queue,
		0,
	)

	req := domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: base64.StdEncoding.EncodeToString([]byte{0x00, 0x01}),
	}
	result, err := uc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.StatusRejected {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
	if result.ConfidenceScore != 0.3 {
		t.Fatalf("expected confidence 0.3, got %v", result.ConfidenceScore)
	}
	if storage.savedKey == "" {
		t.Fatalf("rejected document should still be persisted")
	}
}

func TestProcessMalformedBase64(t *testing.T) {
	uc := newProcessUC(&repoFake{}, &storageFake{}, &queueFake{}, 0)

	_, err := uc.Process(context.Background(), domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: "not!!valid!!base64",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessEmptyDecodedPayload(t *testing.T) {
	uc := newProcessUC(&repoFake{}, &storageFake{}, &queueFake{}, 0)

	_, err := uc.Process(context.Background(), domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: "data:application/pdf;base64,",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty payload, got %v", err)
	}
}

func TestProcessOversizePayload(t *testing.T) {
	uc := newProcessUC(&repoFake{}, &storageFake{}, &queueFake{}, 4)

	_, err := uc.Process(context.Background(), domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: base64.StdEncoding.EncodeToString([]byte("12345")),
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversize payload, got %v", err)
	}
}

func TestProcessStorageFailureIsServerError(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{saveErr: errors.New("disk full")}
	uc := newProcessUC(repo, storage, &queueFake{}, 0)

	_, err := uc.Process(context.Background(), domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("storage failure must not map to client error, got %v", err)
	}
	if repo.created != nil {
		t.Fatalf("submission must not be recorded when storage fails")
	}
}

func TestProcessPublishFailureDoesNotFailRequest(t *testing.T) {
	repo := &repoFake{}
	queue := &queueFake{publishErr: errors.New("nats down")}
	uc := newProcessUC(repo, &storageFake{}, queue, 0)

	result, err := uc.Process(context.Background(), domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.StatusAccepted {
		t.Fatalf("expected accepted, got %s", result.Status)
	}
}

func TestProcessDataURLPrefixIsStripped(t *testing.T) {
	storage := &storageFake{}
	uc := newProcessUC(&repoFake{}, storage, &queueFake{}, 0)

	original := []byte("%PDF-1.4")
	req := domain.ProcessingRequest{
		RecordID:   domain.StringID("r"),
		DocumentID: domain.StringID("d"),
		Base64Data: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(original),
	}
	if _, err := uc.Process(context.Background(), req); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !bytes.Equal(storage.savedBytes, original) {
		t.Fatalf("data URL payload not decoded correctly")
	}
}

package domain

import "time"

type SubmissionStatus string

const (
	StatusAccepted SubmissionStatus = "accepted"
	StatusRejected SubmissionStatus = "rejected"
)

// FileType is the outcome of content sniffing: a MIME label plus the
// extension used for the stored filename.
type FileType struct {
	MIMEType  string
	Extension string
}

// ClassificationRule maps a detected MIME type to a fixed verdict. Rules are
// defined once at process start and evaluated top-down by exact match.
type ClassificationRule struct {
	MIMEType   string           `json:"mime_type"`
	Confidence float64          `json:"confidence"`
	Decision   SubmissionStatus `json:"decision"`
	Reason     string           `json:"reason"`
}

// ProcessingRequest is the inbound payload of a single document submission.
type ProcessingRequest struct {
	RecordID   FlexID `json:"record_id"`
	DocumentID FlexID `json:"document_id"`
	Base64Data string `json:"base64_data"`
}

// ProcessingResult is returned to the caller and never read back from
// storage. MIMEType and SizeBytes feed metrics only and stay out of the
// response body.
type ProcessingResult struct {
	RecordID        FlexID           `json:"record_id"`
	DocumentID      FlexID           `json:"document_id"`
	Status          SubmissionStatus `json:"status"`
	ConfidenceScore float64          `json:"confidence_score"`
	Reason          string           `json:"reason"`

	MIMEType  string `json:"-"`
	SizeBytes int64  `json:"-"`
}

// Submission is the audit record of a processed document: the verdict plus
// where the backup copy lives.
type Submission struct {
	ID         string           `json:"id"`
	RecordID   FlexID           `json:"record_id"`
	DocumentID FlexID           `json:"document_id"`
	MIMEType   string           `json:"mime_type"`
	Extension  string           `json:"extension"`
	SizeBytes  int64            `json:"size_bytes"`
	Status     SubmissionStatus `json:"status"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
	StorageKey string           `json:"storage_key"`
	CreatedAt  time.Time        `json:"created_at"`
}

// SubmissionEvent is the wire payload announced after a submission is
// recorded.
type SubmissionEvent struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	MIMEType     string `json:"mime_type"`
	StorageKey   string `json:"storage_key"`
}

// StoredObject describes one object in temp storage, as listed for retention.
type StoredObject struct {
	Key        string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Package static holds the acceptance rule table. Confidence values are
// fixed per type, not computed.
package static

import (
	"fmt"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

const defaultRejectionConfidence = 0.3

type Classifier struct {
	rules []domain.ClassificationRule
}

func New() *Classifier {
	return &Classifier{rules: acceptedRules()}
}

// Classify resolves a MIME type to its rule by exact match, top-down. Types
// outside the table get the default rejection verdict; there is no unknown
// outcome.
func (c *Classifier) Classify(mimeType string) domain.ClassificationRule {
	for _, rule := range c.rules {
		if rule.MIMEType == mimeType {
			return rule
		}
	}
	return domain.ClassificationRule{
		MIMEType:   mimeType,
		Confidence: defaultRejectionConfidence,
		Decision:   domain.StatusRejected,
		Reason:     fmt.Sprintf("File type '%s' not in accepted list - Rejected", mimeType),
	}
}

// Rules returns a copy of the acceptance table.
func (c *Classifier) Rules() []domain.ClassificationRule {
	out := make([]domain.ClassificationRule, len(c.rules))
	copy(out, c.rules)
	return out
}

func acceptedRules() []domain.ClassificationRule {
	accept := func(mimeType string, confidence float64, reason string) domain.ClassificationRule {
		return domain.ClassificationRule{
			MIMEType:   mimeType,
			Confidence: confidence,
			Decision:   domain.StatusAccepted,
			Reason:     reason,
		}
	}
	return []domain.ClassificationRule{
		accept("application/pdf", 0.95, "PDF document - Accepted"),
		accept("image/jpeg", 0.85, "JPEG image - Accepted"),
		accept("image/png", 0.85, "PNG image - Accepted"),
		accept("image/gif", 0.80, "GIF image - Accepted"),
		accept("application/vnd.openxmlformats-officedocument.wordprocessingml.document", 0.90, "DOCX document - Accepted"),
		accept("application/msword", 0.85, "DOC document - Accepted"),
		accept("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", 0.90, "XLSX spreadsheet - Accepted"),
		accept("application/vnd.ms-excel", 0.85, "XLS spreadsheet - Accepted"),
		accept("application/vnd.openxmlformats-officedocument.presentationml.presentation", 0.90, "PPTX presentation - Accepted"),
		accept("application/vnd.ms-powerpoint", 0.85, "PPT presentation - Accepted"),
		accept("text/plain", 0.70, "Text file - Accepted"),
		accept("application/json", 0.75, "JSON file - Accepted"),
		accept("application/xml", 0.75, "XML file - Accepted"),
		accept("text/html", 0.70, "HTML file - Accepted"),
		accept("text/csv", 0.75, "CSV file - Accepted"),
	}
}

// Package signature infers file types from document content: a data: URL
// header when present, magic bytes otherwise, with text heuristics as a
// fallback. Detection never fails; unrecognized content is generic binary.
package signature

import (
	"archive/zip"
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/document-handler/internal/core/domain"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

type magicRule struct {
	prefix   []byte
	fileType domain.FileType
}

// First match wins; order matters where prefixes could overlap.
var magicRules = []magicRule{
	{[]byte("\x89PNG\r\n\x1a\n"), domain.FileType{MIMEType: "image/png", Extension: "png"}},
	{[]byte("\xff\xd8\xff"), domain.FileType{MIMEType: "image/jpeg", Extension: "jpg"}},
	{[]byte("GIF87a"), domain.FileType{MIMEType: "image/gif", Extension: "gif"}},
	{[]byte("GIF89a"), domain.FileType{MIMEType: "image/gif", Extension: "gif"}},
	{[]byte("%PDF"), domain.FileType{MIMEType: "application/pdf", Extension: "pdf"}},
}

var zipPrefixes = [][]byte{
	{0x50, 0x4b, 0x03, 0x04},
	{0x50, 0x4b, 0x05, 0x06},
	{0x50, 0x4b, 0x07, 0x08},
}

type Detector struct{}

func New() *Detector {
	return &Detector{}
}

// Detect resolves the payload to a (MIME type, extension) pair. The raw
// payload is only consulted for a leading data: URL header; all other checks
// run against the decoded bytes.
func (d *Detector) Detect(payload string, decoded []byte) domain.FileType {
	if ft, ok := detectFromDataURL(payload); ok {
		return ft
	}

	for _, rule := range magicRules {
		if bytes.HasPrefix(decoded, rule.prefix) {
			return rule.fileType
		}
	}

	for _, prefix := range zipPrefixes {
		if bytes.HasPrefix(decoded, prefix) {
			return detectZipContainer(decoded)
		}
	}

	if len(decoded) >= 4 {
		if ft, ok := detectTextFormat(decoded); ok {
			return ft
		}
	}

	return domain.FileType{MIMEType: "application/octet-stream", Extension: "bin"}
}

// detectFromDataURL trusts the mime declared in a data: URL header, e.g.
// "data:application/pdf;base64,JVBER...".
func detectFromDataURL(payload string) (domain.FileType, bool) {
	if !strings.HasPrefix(payload, "data:") {
		return domain.FileType{}, false
	}
	header, _, found := strings.Cut(payload, ",")
	if !found {
		return domain.FileType{}, false
	}
	mimeType, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return domain.FileType{}, false
	}

	extension := "bin"
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		extension = sub
	}
	return domain.FileType{MIMEType: mimeType, Extension: extension}, true
}

// detectZipContainer disambiguates Office Open XML formats from plain ZIP
// archives by the entry paths in the central directory. An archive that
// cannot be opened still counts as a ZIP: the container signature matched.
func detectZipContainer(decoded []byte) domain.FileType {
	generic := domain.FileType{MIMEType: "application/zip", Extension: "zip"}

	reader, err := zip.NewReader(bytes.NewReader(decoded), int64(len(decoded)))
	if err != nil {
		return generic
	}
	for _, f := range reader.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return domain.FileType{MIMEType: mimeDOCX, Extension: "docx"}
		case strings.HasPrefix(f.Name, "xl/"):
			return domain.FileType{MIMEType: mimeXLSX, Extension: "xlsx"}
		case strings.HasPrefix(f.Name, "ppt/"):
			return domain.FileType{MIMEType: mimePPTX, Extension: "pptx"}
		}
	}
	return generic
}

func detectTextFormat(decoded []byte) (domain.FileType, bool) {
	head := decoded
	if len(head) > 100 {
		head = head[:100]
	}
	text := string(head)

	switch {
	case strings.HasPrefix(text, "<?xml"):
		return domain.FileType{MIMEType: "application/xml", Extension: "xml"}, true
	case strings.HasPrefix(text, "{"), strings.HasPrefix(text, "["):
		return domain.FileType{MIMEType: "application/json", Extension: "json"}, true
	case strings.HasPrefix(text, "<html"), strings.HasPrefix(text, "<!DOCTYPE"):
		return domain.FileType{MIMEType: "text/html", Extension: "html"}, true
	case strings.HasPrefix(text, "<?php"):
		return domain.FileType{MIMEType: "application/x-httpd-php", Extension: "php"}, true
	case strings.HasPrefix(text, "#!/"):
		return domain.FileType{MIMEType: "text/plain", Extension: "txt"}, true
	}

	if utf8.Valid(decoded) && isPrintableText(head) {
		return domain.FileType{MIMEType: "text/plain", Extension: "txt"}, true
	}
	return domain.FileType{}, false
}

func isPrintableText(head []byte) bool {
	for _, b := range head {
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b < 0x20 {
			return false
		}
	}
	return true
}

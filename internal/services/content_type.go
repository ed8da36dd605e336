package services

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	ArchiveExtension   = "zip"
	GenericContentType = "application/octet-stream"
)

// resumeContentTypes lists every extension accepted for upload and its MIME type.
var resumeContentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"json": "application/json",
	"csv":  "text/csv",
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// IsAcceptedResume reports whether name has one of the accepted résumé extensions.
func IsAcceptedResume(name string) bool {
	_, ok := resumeContentTypes[Extension(name)]
	return ok
}

// IsArchive reports whether name should be expanded before upload.
func IsArchive(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), "."+ArchiveExtension)
}

// ContentTypeFor looks name up in the static table, falling back to the generic binary type.
func ContentTypeFor(name string) string {
	if ct, ok := resumeContentTypes[Extension(name)]; ok {
		return ct
	}
	return GenericContentType
}

// DetectContentType is used for files picked directly by the user: the static
// table wins, otherwise the content is sniffed.
func DetectContentType(name string, data []byte) string {
	if ct, ok := resumeContentTypes[Extension(name)]; ok {
		return ct
	}
	if len(data) == 0 {
		return GenericContentType
	}
	return mimetype.Detect(data).String()
}

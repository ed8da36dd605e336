package services

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/models"
)

type ArchiveExtractor interface {
	Extract(archiveName string, data []byte) ([]models.UploadCandidateFile, error)
}

type archiveExtractor struct{}

func NewArchiveExtractor() ArchiveExtractor {
	return &archiveExtractor{}
}

// Extract implements ArchiveExtractor. Entries are yielded in archive order; on any
// read failure nothing is returned.
func (a *archiveExtractor) Extract(archiveName string, data []byte) ([]models.UploadCandidateFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.NewArchiveReadError(archiveName, err)
	}

	extracted := make([]models.UploadCandidateFile, 0, len(reader.File))
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			continue
		}

		name := entryBaseName(entry.Name)
		if !IsAcceptedResume(name) {
			continue
		}

		content, err := readEntry(entry)
		if err != nil {
			return nil, apperrors.NewArchiveReadError(archiveName, fmt.Errorf("entry %s: %w", entry.Name, err))
		}

		extracted = append(extracted, models.UploadCandidateFile{
			Name:        name,
			ContentType: ContentTypeFor(name),
			Data:        content,
		})
	}

	return extracted, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// entryBaseName strips any directory prefix, including Windows-style separators.
func entryBaseName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}

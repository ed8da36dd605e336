package services

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/models"
)

// JobDescriptionExtractor turns an uploaded job description file into text.
type JobDescriptionExtractor interface {
	Extract(filename string, data []byte) (models.JobDescription, error)
}

type jobDescriptionExtractor struct{}

func NewJobDescriptionExtractor() JobDescriptionExtractor {
	return &jobDescriptionExtractor{}
}

// Extract implements JobDescriptionExtractor. Supports txt, pdf and docx.
func (e *jobDescriptionExtractor) Extract(filename string, data []byte) (models.JobDescription, error) {
	var (
		text string
		err  error
	)

	switch Extension(filename) {
	case "txt":
		if !utf8.Valid(data) {
			return models.JobDescription{}, apperrors.NewValidationError("Job description file is not valid UTF-8 text")
		}
		text = string(data)
	case "pdf":
		text, err = extractPDFText(data)
	case "docx":
		text, err = extractDOCXText(data)
	default:
		return models.JobDescription{}, apperrors.NewUnsupportedFileError(filename)
	}
	if err != nil {
		return models.JobDescription{}, apperrors.NewValidationError(fmt.Sprintf("Could not read job description from %s: %v", filename, err))
	}

	text = CleanText(text)
	if text == "" {
		return models.JobDescription{}, apperrors.NewValidationError("Job description file contains no text")
	}

	return models.JobDescription{
		Text:       text,
		Method:     models.InputFileDerived,
		SourceFile: filename,
	}, nil
}

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages are skipped
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}

	return text, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]*>`)
)

// extractDOCXText reads the document body, one line per paragraph.
func extractDOCXText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")

	return html.UnescapeString(content), nil
}

// CleanText trims every line and drops the blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleanedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}

// Package pdfimport turns uploaded PDF documents into note content.
//
// The web layer hands it the raw upload bytes; it extracts plain text with
// the ledongthuc/pdf parser and derives a note title from the original
// filename. Pages that fail to parse are skipped rather than failing the
// whole import, since scanned or partially corrupt documents are common.
package pdfimport

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when the uploaded data is empty.
var ErrEmptyDocument = errors.New("pdfimport: empty document")

// ErrNoTextContent is returned when a PDF parses but yields no text,
// typically a scanned document with image-only pages.
var ErrNoTextContent = errors.New("pdfimport: no extractable text in document")

// Document is the result of importing one PDF.
type Document struct {
	// Text is the extracted plain text, pages joined by the configured
	// separator.
	Text string

	// TotalPages is the page count of the source document.
	TotalPages int

	// ExtractedPages is the number of pages that yielded text.
	ExtractedPages int

	// SkippedPages counts pages that were empty or failed to parse.
	SkippedPages int
}

// ImporterConfig holds configuration for PDF import.
type ImporterConfig struct {
	// PageSeparator is inserted between page texts. Defaults to "\n\n".
	PageSeparator string

	// MaxPages limits extraction to the first N pages (0 for all pages).
	MaxPages int
}

// DefaultImporterConfig returns the configuration used for note imports.
func DefaultImporterConfig() ImporterConfig {
	return ImporterConfig{
		PageSeparator: "\n\n",
		MaxPages:      0,
	}
}

// Importer extracts note content from PDF uploads.
type Importer struct {
	config ImporterConfig
}

// NewImporter creates an Importer with the given configuration.
func NewImporter(config ImporterConfig) *Importer {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n\n"
	}
	return &Importer{config: config}
}

// NewDefaultImporter creates an Importer with default configuration.
func NewDefaultImporter() *Importer {
	return NewImporter(DefaultImporterConfig())
}

// Import parses the given PDF bytes and returns the extracted document.
// It returns ErrNoTextContent when the document parses but no page
// contains text.
func (i *Importer) Import(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdfimport: failed to parse PDF: %w", err)
	}

	totalPages := reader.NumPage()
	doc := &Document{TotalPages: totalPages}

	pagesToProcess := totalPages
	if i.config.MaxPages > 0 && i.config.MaxPages < totalPages {
		pagesToProcess = i.config.MaxPages
	}

	var builder strings.Builder

	// Pages are 1-indexed in ledongthuc/pdf.
	for pageIndex := 1; pageIndex <= pagesToProcess; pageIndex++ {
		text := i.extractPage(reader, pageIndex)
		if text == "" {
			doc.SkippedPages++
			continue
		}

		doc.ExtractedPages++
		if builder.Len() > 0 {
			builder.WriteString(i.config.PageSeparator)
		}
		builder.WriteString(text)
	}

	doc.Text = builder.String()
	if doc.Text == "" {
		return doc, ErrNoTextContent
	}
	return doc, nil
}

// extractPage returns the trimmed text of one page, or "" when the page
// is empty or fails to parse.
func (i *Importer) extractPage(reader *pdf.Reader, pageIndex int) string {
	p := reader.Page(pageIndex)
	if p.V.IsNull() {
		return ""
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

var titleSeparators = regexp.MustCompile(`[_\-]+`)
var titleSpaces = regexp.MustCompile(`\s+`)

// TitleFromFilename derives a note title from an uploaded filename:
// the base name without its extension, with underscores and dashes
// turned into spaces. Returns "" when nothing usable remains, letting
// the caller apply its default title.
//
// Example:
//
//	TitleFromFilename("meeting-notes_2024.pdf") // "meeting notes 2024"
func TitleFromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if ext := path.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = base[:len(base)-len(ext)]
	}
	base = titleSeparators.ReplaceAllString(base, " ")
	base = titleSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

package pdfimport

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// minimalPDF builds a one-page PDF containing the given text. Object
// offsets for the cross-reference table are computed as the document is
// written, so the result is a structurally valid file.
func minimalPDF(t *testing.T, text string) []byte {
	t.Helper()

	var buf strings.Builder
	offsets := make([]int, 0, 6)

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	writeObj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(content), content))
	writeObj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefStart := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart))

	return []byte(buf.String())
}

func TestImporter_Import(t *testing.T) {
	doc, err := NewDefaultImporter().Import(minimalPDF(t, "Hello from the import test"))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if doc.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", doc.TotalPages)
	}
	if doc.ExtractedPages != 1 {
		t.Errorf("ExtractedPages = %d, want 1", doc.ExtractedPages)
	}
	if !strings.Contains(doc.Text, "Hello from the import test") {
		t.Errorf("Text = %q, missing expected content", doc.Text)
	}
}

func TestImporter_ImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty data", data: nil, wantErr: ErrEmptyDocument},
		{name: "not a pdf", data: []byte("plain text, not a document")},
		{name: "truncated header", data: []byte("%PDF-1.4\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefaultImporter().Import(tt.data)
			if err == nil {
				t.Fatal("Import() succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Import() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewImporter_DefaultSeparator(t *testing.T) {
	i := NewImporter(ImporterConfig{})
	if i.config.PageSeparator != "\n\n" {
		t.Errorf("PageSeparator = %q, want default", i.config.PageSeparator)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "plain filename", filename: "Meeting Notes.pdf", want: "Meeting Notes"},
		{name: "separators become spaces", filename: "meeting-notes_2024.pdf", want: "meeting notes 2024"},
		{name: "uppercase extension", filename: "Report.PDF", want: "Report"},
		{name: "no extension", filename: "travel plans", want: "travel plans"},
		{name: "full browser path", filename: `C:\Users\me\Documents\recipes.pdf`, want: "recipes"},
		{name: "unix path", filename: "/tmp/uploads/ideas.pdf", want: "ideas"},
		{name: "only extension", filename: ".pdf", want: ""},
		{name: "empty", filename: "", want: ""},
		{name: "collapses whitespace", filename: "a  b__c.pdf", want: "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromFilename(tt.filename); got != tt.want {
				t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

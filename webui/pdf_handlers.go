package webui

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/rosieluu/simple-notes-app/auth"
	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/db"
	"github.com/rosieluu/simple-notes-app/pdfimport"
)

// handleImportPDF creates a note from an uploaded PDF: extracted text
// becomes the content, the filename becomes the title.
func (s *Server) handleImportPDF(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, core.ErrInvalidRequest("Upload too large or malformed multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, core.ErrInvalidRequest("Multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, core.ErrInvalidRequest("Failed to read upload"))
		return
	}

	doc, err := s.deps.Importer.Import(data)
	if err != nil {
		if errors.Is(err, pdfimport.ErrNoTextContent) {
			writeError(w, core.ErrInvalidRequest("PDF contains no extractable text"))
			return
		}
		writeError(w, core.ErrInvalidRequest("Upload is not a readable PDF"))
		return
	}

	title := pdfimport.TitleFromFilename(header.Filename)
	if title == "" {
		title = DefaultNoteTitle
	}

	note := &db.Note{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   title,
		Content: doc.Text,
	}
	if err := s.deps.Notes.CreateNote(r.Context(), note); err != nil {
		s.logger.Errorw("Note creation from PDF failed", "error", err)
		writeError(w, err)
		return
	}

	created, err := s.deps.Notes.GetNote(r.Context(), note.ID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Infow("Note imported from PDF",
		"note_id", note.ID,
		"pages", doc.TotalPages,
		"extracted_pages", doc.ExtractedPages,
	)
	writeJSON(w, http.StatusCreated, toNoteResponse(created))
}

package webui

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rosieluu/simple-notes-app/auth"
	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/db"
)

// DefaultNoteTitle is applied when a note is created without a title.
const DefaultNoteTitle = "Untitled Note"

type notePayload struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags"`
	DefaultPrompt string   `json:"defaultPrompt"`
}

type noteResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Tags            []string  `json:"tags"`
	DefaultPrompt   string    `json:"defaultPrompt"`
	GeneratedPrompt string    `json:"generatedPrompt"`
	ImageIDs        []string  `json:"imageIds"`
	ImageURLs       []string  `json:"imageUrls"`
	HasImages       bool      `json:"hasImages"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toNoteResponse(n *db.Note) noteResponse {
	resp := noteResponse{
		ID:              n.ID,
		Title:           n.Title,
		Content:         n.Content,
		Tags:            n.Tags,
		DefaultPrompt:   n.DefaultPrompt,
		GeneratedPrompt: n.GeneratedPrompt,
		ImageIDs:        n.ImageIDs,
		ImageURLs:       n.ImageURLs,
		HasImages:       n.HasImages,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
	// empty lists serialize as [] rather than null
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.ImageIDs == nil {
		resp.ImageIDs = []string{}
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	return resp
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())

	opts := db.ListNotesOptions{
		Search: r.URL.Query().Get("search"),
		Tag:    r.URL.Query().Get("tag"),
	}
	notes, err := s.deps.Notes.ListNotes(r.Context(), userID, opts)
	if err != nil {
		s.logger.Errorw("Listing notes failed", "error", err)
		writeError(w, err)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for i := range notes {
		resp = append(resp, toNoteResponse(&notes[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": resp})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())

	var req notePayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Title == "" {
		req.Title = DefaultNoteTitle
	}

	note := &db.Note{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         req.Title,
		Content:       req.Content,
		Tags:          req.Tags,
		DefaultPrompt: req.DefaultPrompt,
	}
	if err := s.deps.Notes.CreateNote(r.Context(), note); err != nil {
		s.logger.Errorw("Note creation failed", "error", err)
		writeError(w, err)
		return
	}

	created, err := s.deps.Notes.GetNote(r.Context(), note.ID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(created))
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())
	noteID := mux.Vars(r)["id"]

	note, err := s.deps.Notes.GetNote(r.Context(), noteID, userID)
	if err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())
	noteID := mux.Vars(r)["id"]

	var req notePayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Title == "" {
		req.Title = DefaultNoteTitle
	}

	note := &db.Note{
		ID:            noteID,
		Title:         req.Title,
		Content:       req.Content,
		Tags:          req.Tags,
		DefaultPrompt: req.DefaultPrompt,
	}
	if err := s.deps.Notes.UpdateNote(r.Context(), userID, note); err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}

	updated, err := s.deps.Notes.GetNote(r.Context(), noteID, userID)
	if err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(updated))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())
	noteID := mux.Vars(r)["id"]

	// snapshot the object keys before the rows cascade away
	images, err := s.deps.Notes.ListImages(r.Context(), noteID)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := s.deps.Notes.DeleteNote(r.Context(), noteID, userID); err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}

	// stored objects go best-effort; the note is already gone
	for _, img := range images {
		if err := s.deps.Store.Delete(r.Context(), img.ObjectID); err != nil {
			s.logger.Warnw("Failed to delete stored object",
				"object_id", img.ObjectID,
				"error", err,
			)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())

	tags, err := s.deps.Notes.ListTags(r.Context(), userID)
	if err != nil {
		s.logger.Errorw("Listing tags failed", "error", err)
		writeError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

// mapNoteErr converts the repository sentinel to the API's typed error.
func mapNoteErr(err error, noteID string) error {
	if errors.Is(err, db.ErrNoteNotFound) {
		return core.ErrNoteNotFound(noteID)
	}
	return err
}

package webui

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rosieluu/simple-notes-app/auth"
	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/db"
	"github.com/rosieluu/simple-notes-app/imagegen"
	"github.com/rosieluu/simple-notes-app/promptgen"
	"github.com/rosieluu/simple-notes-app/storage"
	"github.com/rosieluu/simple-notes-app/vision"
)

type imageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type uploadResponse struct {
	Image   imageResponse   `json:"image"`
	Evicted []imageResponse `json:"evicted"`
}

// handleUploadImage attaches an uploaded image to a note. The upload is
// normalized through vision (downscaled when over 2048px), stored, and
// appended as a note_images row with FIFO eviction at the cap.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())
	noteID := mux.Vars(r)["id"]

	// ownership check before reading the body
	if _, err := s.deps.Notes.GetNote(r.Context(), noteID, userID); err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, core.ErrInvalidRequest("Upload too large or malformed multipart body"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, core.ErrInvalidRequest("Multipart field \"image\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, core.ErrInvalidRequest("Failed to read upload"))
		return
	}

	normalized, contentType, err := vision.Normalize(data)
	if err != nil {
		writeError(w, core.ErrInvalidRequest("Upload is not a supported image (png, jpeg, gif)"))
		return
	}

	objectID := storage.NewObjectID(extFromContentType(contentType))
	if err := s.deps.Store.Store(r.Context(), objectID, normalized, contentType); err != nil {
		s.logger.Errorw("Object store write failed", "object_id", objectID, "error", err)
		writeError(w, core.ErrStorageFailure(err.Error()))
		return
	}
	url, err := s.deps.Store.URL(r.Context(), objectID)
	if err != nil {
		writeError(w, core.ErrStorageFailure(err.Error()))
		return
	}

	image := &db.NoteImage{
		ID:       uuid.New().String(),
		NoteID:   noteID,
		ObjectID: objectID,
		URL:      url,
	}
	evicted, err := s.deps.Notes.AppendImage(r.Context(), image, db.MaxImagesPerNote)
	if err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}

	resp := uploadResponse{
		Image:   imageResponse{ID: image.ID, URL: image.URL},
		Evicted: make([]imageResponse, 0, len(evicted)),
	}
	for _, old := range evicted {
		if err := s.deps.Store.Delete(r.Context(), old.ObjectID); err != nil {
			s.logger.Warnw("Failed to delete evicted object",
				"object_id", old.ObjectID,
				"error", err,
			)
		}
		resp.Evicted = append(resp.Evicted, imageResponse{ID: old.ID, URL: old.URL})
	}

	writeJSON(w, http.StatusCreated, resp)
}

type generateRequest struct {
	Style       string `json:"style"`
	AspectRatio string `json:"aspectRatio"`
}

type generateResponse struct {
	TaskID string `json:"taskId"`
	NoteID string `json:"noteId"`
	Status string `json:"status"`
}

// handleGenerate validates the request, marks the note as generating, and
// schedules the pipeline as a fire-and-forget task. Clients observe
// completion via GET /api/notes/{id} or the websocket event channel.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())
	noteID := mux.Vars(r)["id"]

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Style = strings.ToLower(strings.TrimSpace(req.Style))
	if req.Style != "" && !promptgen.IsValidStyle(req.Style) {
		writeError(w, core.ErrInvalidRequest("Unknown style, expected one of: photorealistic, artistic, cartoon, minimalist"))
		return
	}
	if req.AspectRatio != "" && !promptgen.IsValidAspectRatio(req.AspectRatio) {
		writeError(w, core.ErrInvalidRequest("Unknown aspect ratio, expected one of: 1:1, 3:4, 4:3, 16:9, 9:16"))
		return
	}

	if _, err := s.deps.Notes.GetNote(r.Context(), noteID, userID); err != nil {
		writeError(w, mapNoteErr(err, noteID))
		return
	}

	// quota rejection must reach the caller, not a background task
	if err := s.deps.Pipeline.CheckQuota(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	if s.deps.Tracker == nil || !s.deps.Tracker.Start() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: &core.AppError{
			Code:    "SHUTTING_DOWN",
			Message: "Service is shutting down",
			Action:  "Retry once the service is back up",
		}})
		return
	}

	if err := s.deps.Notes.SetGeneratedPrompt(r.Context(), noteID, "Generating image..."); err != nil {
		s.deps.Tracker.Done()
		writeError(w, mapNoteErr(err, noteID))
		return
	}

	taskID := uuid.New().String()
	task := imagegen.Request{
		NoteID:      noteID,
		UserID:      userID,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
	}

	// detached from the request context: the task outlives the response
	go func() {
		defer s.deps.Tracker.Done()
		s.deps.Pipeline.Run(context.Background(), task)
	}()

	s.logger.Infow("Generation task scheduled",
		"task_id", taskID,
		"note_id", noteID,
		"user_id", userID,
	)
	writeJSON(w, http.StatusAccepted, generateResponse{TaskID: taskID, NoteID: noteID, Status: "accepted"})
}

// handleMedia serves disk-store objects under /media/.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	objectID := strings.TrimPrefix(r.URL.Path, "/media/")

	path, err := s.deps.Media.Open(objectID)
	if err != nil {
		writeError(w, core.ErrNotFound("Media object"))
		return
	}
	http.ServeFile(w, r, path)
}

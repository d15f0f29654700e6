package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/db"
	"github.com/rosieluu/simple-notes-app/logging"
	"github.com/rosieluu/simple-notes-app/promptgen"
	"github.com/rosieluu/simple-notes-app/storage"
)

// DefaultGenerationPrompt feeds the prompt builder when a note has neither
// content nor a default prompt of its own.
const DefaultGenerationPrompt = "Enhance this real-estate photo to make it look bright, clean, modern and professional"

// Pipeline stages, for logging and events.
const (
	StagePromptBuilding = "prompt_building"
	StageProviderCall   = "provider_call"
	StageStorageWrite   = "storage_write"
	StageNoteUpdate     = "note_update"
	StageDone           = "done"
	StageFallback       = "fallback"
)

// GenerationEvent is pushed to connected clients as a task progresses.
type GenerationEvent struct {
	NoteID   string `json:"note_id"`
	Status   string `json:"status"`
	ImageURL string `json:"image_url,omitempty"`
}

// EventSink receives generation lifecycle events. Implemented by the
// websocket hub; a nil sink disables events.
type EventSink interface {
	Publish(event GenerationEvent)
}

// Request identifies one generation task.
type Request struct {
	NoteID      string
	UserID      string
	Style       string
	AspectRatio string
}

// Result is what a completed generation task reports.
type Result struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
	ImageID  string `json:"imageId"`
	// GenerationsRemaining is advisory; concurrent tasks may observe
	// overlapping counts.
	GenerationsRemaining int `json:"generationsRemaining"`
}

// Pipeline orchestrates a generation task: quota check, prompt building,
// provider call, fallback synthesis, object storage, note update, and the
// audit record. All dependencies are injected; the pipeline holds no global
// state.
type Pipeline struct {
	notes       *db.NotesRepository
	generations *db.GenerationsRepository
	store       storage.ObjectStore
	builder     *promptgen.Builder
	provider    Provider
	events      EventSink
	httpClient  *http.Client
	dailyLimit  int
	logger      *logging.Logger
}

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Notes       *db.NotesRepository
	Generations *db.GenerationsRepository
	Store       storage.ObjectStore
	Builder     *promptgen.Builder
	Provider    Provider
	Events      EventSink // optional
	HTTPClient  *http.Client
	DailyLimit  int
	Logger      *logging.Logger
}

// NewPipeline creates a Pipeline from its dependencies.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Notes == nil || cfg.Generations == nil {
		return nil, fmt.Errorf("imagegen: repositories are required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("imagegen: object store is required")
	}
	if cfg.Builder == nil {
		return nil, fmt.Errorf("imagegen: prompt builder is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("imagegen: provider is required")
	}
	if cfg.DailyLimit < 1 {
		return nil, fmt.Errorf("imagegen: daily limit must be positive, got %d", cfg.DailyLimit)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Pipeline{
		notes:       cfg.Notes,
		generations: cfg.Generations,
		store:       cfg.Store,
		builder:     cfg.Builder,
		provider:    cfg.Provider,
		events:      cfg.Events,
		httpClient:  httpClient,
		dailyLimit:  cfg.DailyLimit,
		logger:      logger.Named("imagegen"),
	}, nil
}

// CheckQuota reports whether the user can start another generation today.
// Returns core.ErrRateLimited once the daily limit is reached, so the HTTP
// layer can reject the request before a task is ever scheduled.
func (p *Pipeline) CheckQuota(ctx context.Context, userID string) error {
	used, err := p.generations.CountForUserOn(ctx, userID, db.DateOf(time.Now()))
	if err != nil {
		return fmt.Errorf("imagegen: quota check failed: %w", err)
	}
	if used >= p.dailyLimit {
		return core.ErrRateLimited(p.dailyLimit)
	}
	return nil
}

// Generate runs one generation task to completion.
//
// The quota check happens before any provider call. Provider failures do
// not fail the task: they route to the SVG fallback, and the task still
// stores an image, updates the note, and records the attempt. Storage
// failures are fatal and leave the note untouched.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	taskLogger := p.logger.With(
		zap.String("note_id", req.NoteID),
		zap.String("user_id", req.UserID),
	)

	today := db.DateOf(time.Now())
	used, err := p.generations.CountForUserOn(ctx, req.UserID, today)
	if err != nil {
		return nil, fmt.Errorf("imagegen: quota check failed: %w", err)
	}
	if used >= p.dailyLimit {
		taskLogger.Warnw("Daily generation limit reached", "used", used, "limit", p.dailyLimit)
		return nil, core.ErrRateLimited(p.dailyLimit)
	}

	note, err := p.notes.GetNote(ctx, req.NoteID, req.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNoteNotFound) {
			return nil, core.ErrNoteNotFound(req.NoteID)
		}
		return nil, fmt.Errorf("imagegen: loading note: %w", err)
	}

	style := req.Style
	if !promptgen.IsValidStyle(style) {
		style = promptgen.StylePhotorealistic
	}

	taskLogger.Debugw("Building prompt", "stage", StagePromptBuilding, "style", style)
	content := note.Content
	if content == "" {
		content = note.DefaultPrompt
	}
	if content == "" {
		content = DefaultGenerationPrompt
	}
	prompt := p.builder.BuildPrompt(ctx, promptgen.PromptContext{
		Title:          note.Title,
		Content:        content,
		Style:          style,
		ExistingImages: len(note.ImageIDs),
	})

	aspectRatio := req.AspectRatio
	if !promptgen.IsValidAspectRatio(aspectRatio) {
		aspectRatio = promptgen.DetermineAspectRatio(prompt, style)
	}

	taskLogger.Infow("Calling image provider",
		"stage", StageProviderCall,
		"aspect_ratio", aspectRatio,
		"prompt_length", len(prompt),
	)

	var imageURL string
	providerResult, providerErr := p.provider.Generate(ctx, GenerateRequest{
		Prompt:      prompt,
		Style:       style,
		AspectRatio: aspectRatio,
	})
	if providerErr != nil {
		errorType := ClassifyError(providerErr)
		taskLogger.Warnw("Provider failed, synthesizing fallback image",
			"stage", StageFallback,
			"error", providerErr,
			"error_type", errorType,
		)
		imageURL = GenerateFallbackSVG(prompt, errorType)
		prompt = FallbackPrompt(prompt, errorType)
	} else {
		imageURL = providerResult.ImageURL
	}

	data, contentType, err := FetchImage(ctx, p.httpClient, imageURL)
	if err != nil {
		return nil, core.ErrStorageFailure(fmt.Sprintf("materializing image: %v", err))
	}

	objectID := storage.NewObjectID(extensionFor(contentType))
	taskLogger.Debugw("Storing image object",
		"stage", StageStorageWrite,
		"object_id", objectID,
		"bytes", len(data),
	)
	if err := p.store.Store(ctx, objectID, data, contentType); err != nil {
		return nil, core.ErrStorageFailure(err.Error())
	}

	storedURL, err := p.store.URL(ctx, objectID)
	if err != nil {
		return nil, core.ErrStorageFailure(fmt.Sprintf("resolving object URL: %v", err))
	}

	image := &db.NoteImage{
		NoteID:   note.ID,
		ObjectID: objectID,
		URL:      storedURL,
		Prompt:   prompt,
	}
	evicted, err := p.notes.AppendImage(ctx, image, db.MaxImagesPerNote)
	if err != nil {
		return nil, fmt.Errorf("imagegen: appending image record: %w", err)
	}
	for _, old := range evicted {
		if err := p.store.Delete(ctx, old.ObjectID); err != nil {
			taskLogger.Warnw("Failed to delete evicted image object",
				"object_id", old.ObjectID,
				"error", err,
			)
		}
	}

	taskLogger.Debugw("Updating note", "stage", StageNoteUpdate)
	if err := p.notes.SetGeneratedPrompt(ctx, note.ID, prompt); err != nil {
		taskLogger.Warnw("Failed to set generated prompt", "error", err)
	}

	record := &db.GenerationRecord{
		UserID:   req.UserID,
		NoteID:   note.ID,
		Date:     today,
		Prompt:   prompt,
		ImageURL: storedURL,
		Success:  providerErr == nil,
	}
	if err := p.generations.Insert(ctx, record); err != nil {
		taskLogger.Errorw("Failed to record generation attempt", "error", err)
	}

	remaining := p.dailyLimit - (used + 1)
	if remaining < 0 {
		remaining = 0
	}

	taskLogger.Infow("Generation task complete",
		"stage", StageDone,
		"image_id", image.ID,
		"fallback", providerErr != nil,
		"generations_remaining", remaining,
	)

	return &Result{
		ImageURL:             storedURL,
		Prompt:               prompt,
		ImageID:              image.ID,
		GenerationsRemaining: remaining,
	}, nil
}

// Run executes Generate and publishes lifecycle events instead of
// returning. Used for fire-and-forget tasks scheduled off an HTTP request.
func (p *Pipeline) Run(ctx context.Context, req Request) {
	result, err := p.Generate(ctx, req)
	if err != nil {
		p.logger.Errorw("Generation task failed",
			"note_id", req.NoteID,
			"error", err,
		)
		// Clear the in-progress marker so a failed task does not read
		// as a running one.
		if clearErr := p.notes.SetGeneratedPrompt(ctx, req.NoteID, ""); clearErr != nil {
			p.logger.Warnw("Failed to clear generation marker",
				"note_id", req.NoteID,
				"error", clearErr,
			)
		}
		p.publish(GenerationEvent{NoteID: req.NoteID, Status: "failed"})
		return
	}
	p.publish(GenerationEvent{NoteID: req.NoteID, Status: "completed", ImageURL: result.ImageURL})
}

func (p *Pipeline) publish(event GenerationEvent) {
	if p.events != nil {
		p.events.Publish(event)
	}
}

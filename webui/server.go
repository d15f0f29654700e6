package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rosieluu/simple-notes-app/auth"
	"github.com/rosieluu/simple-notes-app/db"
	"github.com/rosieluu/simple-notes-app/imagegen"
	"github.com/rosieluu/simple-notes-app/logging"
	"github.com/rosieluu/simple-notes-app/pdfimport"
	"github.com/rosieluu/simple-notes-app/shutdown"
	"github.com/rosieluu/simple-notes-app/storage"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr to listen on, e.g. ":8080"
	Addr string

	// ReadTimeout for HTTP requests (default: 30s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses (default: 90s, image generation
	// responses can carry large data URLs)
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// MaxUploadBytes bounds image and PDF upload bodies (default: 10MB)
	MaxUploadBytes int64

	// LoginMaxAttempts failed logins per IP before blocking (default: 5)
	LoginMaxAttempts int

	// LoginWindow for counting failed attempts (default: 15m)
	LoginWindow time.Duration

	// LoginBlock duration once the limit is hit (default: 30m)
	LoginBlock time.Duration

	// LogSkipPaths are request paths excluded from request logging
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:             ":8080",
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     90 * time.Second,
		IdleTimeout:      120 * time.Second,
		ShutdownTimeout:  30 * time.Second,
		MaxUploadBytes:   10 << 20,
		LoginMaxAttempts: 5,
		LoginWindow:      15 * time.Minute,
		LoginBlock:       30 * time.Minute,
		LogSkipPaths:     []string{"/health", "/ws/events"},
	}
}

// Deps are the collaborators the server needs. All are required except
// Tracker (nil disables generation scheduling) and Media (nil disables
// the /media route, which is the case for the S3 backend).
type Deps struct {
	Users    *db.UsersRepository
	Notes    *db.NotesRepository
	JWT      *auth.JWTService
	Store    storage.ObjectStore
	Media    *storage.DiskStore // nil for the S3 backend
	Pipeline *imagegen.Pipeline
	Importer *pdfimport.Importer
	Hub      *EventHub
	Tracker  *shutdown.OperationTracker
	Logger   *logging.Logger
}

// Server is the HTTP organism wiring routes, middleware, and handlers.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     ServerConfig
	deps       Deps
	limiter    *LoginLimiter
	logger     *logging.Logger
}

// NewServer creates a Server with all routes registered.
func NewServer(config ServerConfig, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Notes == nil {
		return nil, fmt.Errorf("webui: repositories are required")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("webui: JWT service is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("webui: object store is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("webui: generation pipeline is required")
	}
	if deps.Importer == nil {
		deps.Importer = pdfimport.NewDefaultImporter()
	}
	if deps.Hub == nil {
		deps.Hub = NewEventHub(deps.Logger)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10 << 20
	}
	if config.LoginMaxAttempts <= 0 {
		config.LoginMaxAttempts = 5
	}
	if config.LoginWindow <= 0 {
		config.LoginWindow = 15 * time.Minute
	}
	if config.LoginBlock <= 0 {
		config.LoginBlock = 30 * time.Minute
	}

	s := &Server{
		router:  mux.NewRouter(),
		config:  config,
		deps:    deps,
		limiter: NewLoginLimiter(config.LoginMaxAttempts, config.LoginWindow, config.LoginBlock),
		logger:  deps.Logger.Named("webui"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      requestLogging(s.logger, config.LogSkipPaths)(s.router),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := s.router.PathPrefix("/api").Subrouter()
	authed.Use(auth.Middleware(s.deps.JWT))

	authed.HandleFunc("/notes", s.handleListNotes).Methods(http.MethodGet)
	authed.HandleFunc("/notes", s.handleCreateNote).Methods(http.MethodPost)
	// registered before /notes/{id} so mux does not treat "import" as an id
	authed.HandleFunc("/notes/import/pdf", s.handleImportPDF).Methods(http.MethodPost)
	authed.HandleFunc("/notes/{id}", s.handleGetNote).Methods(http.MethodGet)
	authed.HandleFunc("/notes/{id}", s.handleUpdateNote).Methods(http.MethodPut)
	authed.HandleFunc("/notes/{id}", s.handleDeleteNote).Methods(http.MethodDelete)
	authed.HandleFunc("/notes/{id}/images", s.handleUploadImage).Methods(http.MethodPost)
	authed.HandleFunc("/notes/{id}/generate", s.handleGenerate).Methods(http.MethodPost)
	authed.HandleFunc("/tags", s.handleListTags).Methods(http.MethodGet)

	ws := s.router.PathPrefix("/ws").Subrouter()
	ws.Use(auth.Middleware(s.deps.JWT))
	ws.HandleFunc("/events", s.deps.Hub.HandleConnection)

	if s.deps.Media != nil {
		s.router.PathPrefix("/media/").HandlerFunc(s.handleMedia).Methods(http.MethodGet)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start runs the websocket hub, the limiter cleanup ticker, and the HTTP
// server. Blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	go s.deps.Hub.Start(ctx)
	s.limiter.StartCleanupTicker(ctx, 5*time.Minute)

	s.logger.Infow("HTTP server starting", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webui: http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webui: shutdown: %w", err)
	}
	return nil
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// extFromContentType maps a normalized upload content type to an object
// key extension.
func extFromContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".png"
	}
}

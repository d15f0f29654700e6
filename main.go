// Command simple-notes-app runs the notes web service: user accounts,
// note CRUD with tags and attached images, and the image-generation
// pipeline behind the /generate endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rosieluu/simple-notes-app/auth"
	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/db"
	"github.com/rosieluu/simple-notes-app/imagegen"
	"github.com/rosieluu/simple-notes-app/logging"
	"github.com/rosieluu/simple-notes-app/promptgen"
	"github.com/rosieluu/simple-notes-app/shutdown"
	"github.com/rosieluu/simple-notes-app/storage"
	"github.com/rosieluu/simple-notes-app/webui"
)

func main() {
	// Service subcommands (install/uninstall/start/stop) exit here.
	if HandleServiceCommand(os.Args[1:]) {
		return
	}
	if ranAsService, err := RunAsService(); ranAsService {
		if err != nil {
			fmt.Fprintf(os.Stderr, "service error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application and blocks until shutdown completes. It is
// shared between interactive startup and the service wrapper; cancelling
// parent has the same effect as SIGTERM.
func run(parent context.Context) error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	cfg, err := core.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.DevMode, cfg.LogFilePath)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	result := core.NewValidationSuite(cfg).Validate()
	if result.FailedSteps > 0 {
		logger.Errorw("Startup validation failed", "summary", result.Summary())
		return result.GetFirstError()
	}

	database, err := db.NewDatabaseWithConfig(db.DatabaseConfig{
		Path:           cfg.DatabasePath,
		MigrationsPath: migrationsURL(cfg.MigrationsPath),
	})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return fmt.Errorf("migrations: %w", err)
	}

	asyncWriter := db.NewAsyncWriter(db.NewGenerationWriteHandler(database))
	asyncWriter.Start()

	store, err := storage.NewObjectStore(cfg)
	if err != nil {
		database.Close()
		return fmt.Errorf("object store: %w", err)
	}
	// Disk-backed deployments serve /media/ directly; S3 hands out
	// presigned URLs so no local media handler is mounted.
	var media *storage.DiskStore
	if ds, ok := store.(*storage.DiskStore); ok {
		media = ds
	}

	jwtService, err := auth.NewJWTServiceWithConfig(auth.JWTConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.JWTTTL,
	})
	if err != nil {
		database.Close()
		return fmt.Errorf("auth: %w", err)
	}

	notes := db.NewNotesRepository(database)
	generations := db.NewGenerationsRepositoryWithAsyncWriter(database, asyncWriter)

	hub := webui.NewEventHub(logger)
	pipeline, err := imagegen.NewPipeline(imagegen.PipelineConfig{
		Notes:       notes,
		Generations: generations,
		Store:       store,
		Builder:     promptgen.NewBuilder(cfg, logger),
		Provider:    imagegen.NewOpenRouterProvider(cfg, logger),
		Events:      hub,
		HTTPClient:  core.GetHTTPClient(cfg, cfg.ImageTimeout),
		DailyLimit:  cfg.GenerationDailyLimit,
		Logger:      logger,
	})
	if err != nil {
		database.Close()
		return fmt.Errorf("pipeline: %w", err)
	}

	manager := shutdown.NewManager(logger)
	manager.Start()
	go func() {
		<-parent.Done()
		manager.Stop()
	}()

	database.StartCleanupSchedulerWithConfig(manager.Context(), db.DefaultCleanupSchedulerConfig())

	serverConfig := webui.DefaultServerConfig()
	serverConfig.Addr = cfg.ListenAddr()
	serverConfig.MaxUploadBytes = cfg.MaxUploadBytes

	server, err := webui.NewServer(serverConfig, webui.Deps{
		Users:    db.NewUsersRepository(database),
		Notes:    notes,
		JWT:      jwtService,
		Store:    store,
		Media:    media,
		Pipeline: pipeline,
		Hub:      hub,
		Tracker:  manager.Tracker(),
		Logger:   logger,
	})
	if err != nil {
		database.Close()
		return fmt.Errorf("server: %w", err)
	}

	manager.Register("http-server", 10, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	manager.Register("async-writer", 20, func(ctx context.Context) error {
		asyncWriter.Stop()
		return nil
	})
	manager.Register("database", 30, func(ctx context.Context) error {
		return database.Close()
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(manager.Context())
	}()

	logger.Infow("Notes service started",
		"addr", cfg.ListenAddr(),
		"storage_backend", cfg.StorageBackend,
		"provider_configured", cfg.HasProviderCredential(),
	)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Errorw("Server failed", "error", err)
			manager.Shutdown()
			return err
		}
	case <-manager.Context().Done():
	}

	return manager.Shutdown()
}

// migrationsURL turns a config path into a golang-migrate file source URL.
func migrationsURL(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + strings.TrimPrefix(path, "./")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"experiment-go/server/internal/config"
	"experiment-go/server/internal/database"
	"experiment-go/server/internal/handlers"
	logger "experiment-go/server/internal/logging"
	"experiment-go/server/internal/models"
	"experiment-go/server/internal/repository"
	"experiment-go/server/internal/router"
	"experiment-go/server/internal/services"
	"experiment-go/server/internal/storage"

	"go.uber.org/zap"
)

// resolve makes relative paths from the config relative to the project root.
func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func main() {
	projectRoot := os.Getenv("EXPERIMENT_ROOT")
	if projectRoot == "" {
		projectRoot = ".."
	}

	// Load configuration
	loader, err := config.Load(projectRoot)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	cfg := *loader.Current()

	// Initialize Logger
	log, err := logger.Init(projectRoot, cfg.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	loader.Watch(log)

	// Load stimulus texts at startup
	corpus, err := models.LoadCorpus(resolve(projectRoot, cfg.Analysis.TextsFile))
	if err != nil {
		log.Warn("Texts file unavailable, word counts rely on text_content", zap.Error(err))
		corpus = models.NewCorpus()
	}

	cfg.Storage.DataDir = resolve(projectRoot, cfg.Storage.DataDir)
	files, err := storage.NewLocalStore(cfg.Storage.DataDir)
	if err != nil {
		log.Fatal("Failed to prepare data directory", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cloud storage is optional; failed uploads are retried in the background
	var (
		uploader  storage.Uploader
		retries   handlers.RetryQueue
		schedDone <-chan struct{}
	)
	if cfg.Supabase.Enabled {
		store := storage.NewSupabaseStore(cfg.Supabase)
		scheduler := services.NewScheduler(log, files, store, cfg.Supabase.RetryInterval)
		schedDone = scheduler.Start(ctx)
		uploader, retries = store, scheduler
	} else {
		log.Info("Supabase storage disabled, sessions are only stored locally.")
	}

	// The database only stores summaries for the results pages
	var (
		sessions handlers.SessionSaver
		results  handlers.ResultsRepository
	)
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		repo := repository.NewSessionRepository(db)
		sessions, results = repo, repo
	} else {
		log.Info("Database disabled, results pages are unavailable.")
	}

	processor := services.NewProcessor(corpus, cfg.Analysis.DefaultViewportWidth, log)
	loader.OnReload(func(c *config.Config) {
		processor.SetDefaultViewportWidth(c.Analysis.DefaultViewportWidth)
	})

	r := router.Setup(log, &cfg, router.Handlers{
		Data:    handlers.NewDataHandler(log, processor, files, uploader, retries, sessions),
		Gaze:    handlers.NewGazeHandler(log, processor),
		Results: handlers.NewResultsHandler(log, results),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening on http://localhost:" + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if schedDone != nil {
		<-schedDone
	}
	log.Info("Server stopped.")
}

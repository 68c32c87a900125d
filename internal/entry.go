// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/ai"
	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/inbox"
	"github.com/starford/raido/internal/linkservice"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Open the link store. If SQLite is unavailable the application keeps
	// running on an in-memory store so the UI stays usable for the session.
	provider := app.provider
	if provider == nil {
		db, err := store.Open(cfg.SQLite.Path)
		switch {
		case err == nil:
			provider = db
		case errors.Is(err, apperr.ErrStorageUnavailable):
			logger.Warn("sqlite unavailable, falling back to in-memory store",
				slog.String("error", err.Error()))
			provider = store.NewMemory()
		default:
			return fmt.Errorf("open store: %w", err)
		}
	}
	defer provider.Close()

	// Build the link service and load data. Loading runs the schema
	// migration before anything else touches the store.
	svc := linkservice.New(provider, logger)
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("load links: %w", err)
	}

	// SSE broker, fed by service change events.
	broker := sse.NewBroker()
	defer broker.Close()
	svc.SetOnChange(broker.PublishChange)

	// AI boundary is optional. Without an API key the endpoints report
	// the feature as unavailable.
	var (
		summarizer ai.Summarizer
		related    ai.RelatedFinder
	)
	if cfg.AI.Enabled() {
		var aiOpts []ai.ClientOption
		if cfg.AI.Model != "" {
			aiOpts = append(aiOpts, ai.WithModel(cfg.AI.Model))
		}
		if cfg.AI.BaseURL != "" {
			aiOpts = append(aiOpts, ai.WithBaseURL(cfg.AI.BaseURL))
		}
		client := ai.NewClient(cfg.AI.APIKey, aiOpts...)
		summarizer = client
		related = client
		logger.Info("AI features enabled", slog.String("model", cfg.AI.Model))
	}

	apiRouter := api.NewRouter(svc, summarizer, related,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Data.Dir)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the inbox directory for CSV drops.
	if cfg.Inbox.Enabled {
		inboxDir := cfg.Inbox.Path
		if inboxDir == "" {
			inboxDir = filepath.Join(cfg.Data.Dir, "inbox")
		}
		g.Go(func() error {
			if err := inbox.Watch(gCtx, svc, inboxDir, logger); err != nil {
				logger.Warn("inbox watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Package server wires the application together: router, middleware,
// routes, and graceful shutdown. It is the composition root — every
// dependency chain (DB → repositories → service → handler) is assembled
// in New, nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/feed-curation/internal/config"
	"github.com/sakif/feed-curation/internal/handler"
	"github.com/sakif/feed-curation/internal/middleware"
	sqliteRepo "github.com/sakif/feed-curation/internal/repository/sqlite"
	"github.com/sakif/feed-curation/internal/service"
	"github.com/sakif/feed-curation/internal/storage"
)

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown in Start.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the server: database, file store, service, handlers,
// routes. The handler receives the service, the service receives the
// repository interfaces and the file store — each layer sees only what it
// needs.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	files, err := storage.NewDisk(cfg.UploadDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening file store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(files)

	return s, nil
}

func (s *Server) setupRoutes(files *storage.Disk) {
	// Middleware order: request id first so the logger can report it,
	// recoverer last so panics in handlers still produce a 500.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Uploaded media is served back under the same prefix the file store
	// bakes into its references.
	fileServer := http.FileServer(http.Dir(files.Dir()))
	s.router.Handle("/files/*", http.StripPrefix("/files/", fileServer))

	feedService := service.NewFeedService(
		sqliteRepo.NewFeedRepo(s.db),
		sqliteRepo.NewUserRepo(s.db),
		sqliteRepo.NewPlaceRepo(s.db),
		files,
		s.logger,
	)
	feedHandler := handler.NewFeedHandler(feedService, s.logger)

	s.router.Mount("/feed", feedHandler.Routes())
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests (30s limit) and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.UploadDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Package server is the composition root: it builds the store, services and
// handlers from a Config, mounts them on a chi router and runs the HTTP
// server with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/config"
	"github.com/sakif/travel-journal/internal/handler"
	"github.com/sakif/travel-journal/internal/media"
	"github.com/sakif/travel-journal/internal/media/local"
	"github.com/sakif/travel-journal/internal/media/minio"
	"github.com/sakif/travel-journal/internal/middleware"
	sqliteRepo "github.com/sakif/travel-journal/internal/repository/sqlite"
	"github.com/sakif/travel-journal/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the HTTP router and the resources behind it. The database is
// closed by Start on shutdown, or by Close when Start is never called.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and media store named by cfg and wires every
// route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	passwords, err := auth.NewPasswordHasher(cfg.JWT.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqliteRepo.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening media store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, passwords, store)

	return s, nil
}

func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	switch cfg.Media.Backend {
	case config.MediaBackendMinio:
		return minio.New(ctx, minio.Options{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return local.New(cfg.Media.UploadDir)
	}
}

// setupRoutes mounts middleware and routes.
//
//	POST   /create-account             register
//	POST   /login                      login
//	GET    /get-user                   current user            [auth]
//	POST   /image-upload               upload image
//	DELETE /delete-image?imageUrl=     delete image
//	POST   /add-travel-story           create story            [auth]
//	GET    /get-all-stories            list stories            [auth]
//	PUT    /edit-story/{id}            replace story fields    [auth]
//	DELETE /delete-story/{id}          delete story            [auth]
//	PUT    /update-is-favourite/{id}   set favourite flag      [auth]
//	GET    /search?query=              search titles           [auth]
//	GET    /uploads/{name}             uploaded image bytes
//	GET    /assets/*                   static assets
//	GET    /healthz                    liveness + DB ping
//
// Middleware runs in the order added: request id first so the logger can
// print it, Recoverer inside the logger so a panic is still logged as 500.
func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordHasher, store media.Store) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "Route not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	storyService := service.NewStoryService(s.db, s.config.PlaceholderImageURL, s.logger)
	mediaService := service.NewMediaService(store, s.config.ServerURL, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	storyHandler := handler.NewStoryHandler(storyService, s.logger)
	mediaHandler := handler.NewMediaHandler(mediaService, s.config.Media.MaxUploadBytes, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	// === Public routes ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Post("/create-account", authHandler.HandleCreateAccount)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/image-upload", mediaHandler.HandleUpload)
	s.router.Delete("/delete-image", mediaHandler.HandleDelete)
	s.router.Get(service.UploadPathPrefix+"{name}", mediaHandler.HandleServe)

	assets := http.FileServer(http.Dir(s.config.AssetsDir))
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", assets))

	// === Protected routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.logger))

		r.Get("/get-user", authHandler.HandleGetUser)
		r.Post("/add-travel-story", storyHandler.HandleAdd)
		r.Get("/get-all-stories", storyHandler.HandleList)
		r.Put("/edit-story/{id}", storyHandler.HandleEdit)
		r.Delete("/delete-story/{id}", storyHandler.HandleDelete)
		r.Put("/update-is-favourite/{id}", storyHandler.HandleSetFavourite)
		r.Get("/search", storyHandler.HandleSearch)
	})
}

// Handler returns the fully wired router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it itself on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.ServerURL),
			slog.String("database", s.config.DBPath),
			slog.String("media", s.config.Media.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// writeEnvelope answers router-level misses in the same shape as handlers.
func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}{Error: true, Message: message})
}

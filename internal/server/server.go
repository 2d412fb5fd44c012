package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/algorisys-oss/python-opencv-katas/internal/config"
	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
	"github.com/algorisys-oss/python-opencv-katas/internal/hint"
	"github.com/algorisys-oss/python-opencv-katas/internal/kata"
	"github.com/algorisys-oss/python-opencv-katas/internal/storage"
)

// Server is the HTTP server for the katas web API.
type Server struct {
	cfg       *config.Config
	store     storage.Store
	sandbox   *executor.Sandbox
	desktop   *executor.Desktop
	catalog   *kata.Catalog
	explainer *hint.Explainer // nil when hints are not configured
	router    chi.Router
	http      *http.Server
}

// New creates a new Server.
func New(cfg *config.Config, store storage.Store, sandbox *executor.Sandbox,
	desktop *executor.Desktop, catalog *kata.Catalog, explainer *hint.Explainer) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		sandbox:   sandbox,
		desktop:   desktop,
		catalog:   catalog,
		explainer: explainer,
		router:    chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		// Execution
		r.Post("/execute", s.handleExecute)
		r.Post("/execute/stop", s.handleStop)

		// Desktop session events (no JSON content-type)
		r.Get("/desktop/ws", s.handleDesktopWS)

		// Kata catalog
		r.Get("/katas", s.handleListKatas)
		r.Get("/katas/{slug}", s.handleGetKata)

		// Run history
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
		r.Post("/runs/{id}/hint", s.handleHint)

		r.Get("/healthz", s.handleHealthz)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("Katas server starting on http://localhost%s", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server and stops any running desktop
// process so no orphaned camera window survives the backend.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	s.desktop.Registry().Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}

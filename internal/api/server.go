package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dgallion1/litchunk/internal/config"
	"github.com/dgallion1/litchunk/internal/extract"
	"github.com/dgallion1/litchunk/internal/pipeline"
	"github.com/dgallion1/litchunk/internal/stats"
	"github.com/dgallion1/litchunk/internal/tokens"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services are the pipeline components the handlers call.
type Services struct {
	Orchestrator *pipeline.Orchestrator
	Batch        *pipeline.Batch
	Extractor    *extract.Extractor
	Estimator    *tokens.Estimator
	Stats        *stats.Window
}

// Server is the HTTP API server for litchunk.
type Server struct {
	router chi.Router
	svc    Services
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(svc Services, log *slog.Logger, cfg config.Config) *Server {
	if svc.Stats == nil {
		svc.Stats = stats.NewWindow(cfg.StatsWindow)
	}
	s := &Server{
		svc: svc,
		log: log,
		cfg: cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/extract", s.handleExtract)
		r.Post("/api/chunks", s.handleChunks)
		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Post("/api/tokens", s.handleTokens)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidChunkSpec):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoContent):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

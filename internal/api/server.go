package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docquery/internal/answer"
	"github.com/dgallion1/docquery/internal/config"
	"github.com/dgallion1/docquery/internal/qa"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docquery.
type Server struct {
	router       chi.Router
	engine       *qa.Engine
	primary      answer.Answerer
	backup       answer.Answerer
	primaryStats *answer.CallStats
	backupStats  *answer.CallStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. backup and its stats
// may be nil when no Gemini key is configured.
func NewServer(engine *qa.Engine, primary, backup answer.Answerer, primaryStats, backupStats *answer.CallStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine:       engine,
		primary:      primary,
		backup:       backup,
		primaryStats: primaryStats,
		backupStats:  backupStats,
		log:          log,
		cfg:          cfg,
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
		r.Use(AuthMiddleware(s.cfg.DocqueryAPIKey, s.log))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Post("/api/documents/{docID}/reprocess", s.handleReprocessDocument)
		r.Post("/api/documents/{docID}/questions", s.handleAskQuestion)
		r.Get("/api/documents/{docID}/history", s.handleThreadHistory)

		r.Get("/api/history/search", s.handleHistorySearch)
		r.Get("/api/history/export", s.handleHistoryExport)
		r.Post("/api/history/import", s.handleHistoryImport)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

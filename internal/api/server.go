package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/blackout/internal/config"
	"github.com/dgallion1/blackout/internal/parser"
	"github.com/dgallion1/blackout/internal/redact"
	"github.com/dgallion1/blackout/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for blackout.
type Server struct {
	router    chi.Router
	sessions  *redact.Store
	commands  *stats.Recorder
	parseOpts parser.Options
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *redact.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		commands: stats.NewRecorder(cfg.StatsWindow),
		parseOpts: parser.Options{
			Sanitize:          cfg.SanitizeHTML,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
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

		r.Post("/api/documents", s.handleCreateDocument)
		r.Post("/api/documents/batch", s.handleBatchCreate)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Post("/api/documents/{docID}/commands", s.handleCommand)
		r.Get("/api/documents/{docID}/history", s.handleHistory)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

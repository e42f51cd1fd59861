package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/oneshot/internal/config"
	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/llm"
	"github.com/dgallion1/oneshot/internal/media"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Explainer *explain.Service
	Speech    *media.SpeechClient
	Video     *media.VideoPipeline
	// LLM is the measured completer shared by every generator; it backs
	// /api/stats/llm.
	LLM *llm.Measured
}

// Server is the HTTP API server for oneshot.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
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
	r.Handle("/videos/*", http.StripPrefix("/videos/", http.FileServer(http.Dir(s.cfg.VideosDir))))

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Use(RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
		r.Use(MaxBody(s.cfg.MaxBodyBytes))

		r.Post("/api/explain", s.handleExplain)
		r.Post("/api/expand", s.handleExpand)
		r.Post("/api/ask", s.handleAsk)
		r.Post("/api/generate-audio", s.handleGenerateAudio)
		r.Post("/api/generate-video", s.handleGenerateVideo)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

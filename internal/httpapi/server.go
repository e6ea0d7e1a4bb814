// Package httpapi exposes the REST surface: chat, memory, and system
// endpoints behind logging, recovery, CORS, and rate limiting.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/user/souentd/internal/auth"
	"github.com/user/souentd/internal/chat"
	"github.com/user/souentd/internal/state"
	"github.com/user/souentd/internal/types"
)

// SystemInfo carries the non-sensitive deployment facts the system
// endpoints report.
type SystemInfo struct {
	AppName          string
	Version          string
	Environment      string
	Provider         string
	Model            string
	StorageType      string
	RateLimitEnabled bool
	RateLimit        int
	RateLimitPeriod  int
	Temperature      float32
	MaxTokens        int
}

// Server is the HTTP handler for the chat backend.
type Server struct {
	orch    *chat.Orchestrator
	gate    *auth.Gate
	prefs   types.PreferenceStore
	canon   *state.CanonStore
	limiter *RateLimiter
	info    SystemInfo
	logger  *slog.Logger
	started time.Time
	mux     *http.ServeMux
	handler http.Handler
}

// Options configures NewServer.
type Options struct {
	Orchestrator   *chat.Orchestrator
	Gate           *auth.Gate
	Prefs          types.PreferenceStore
	Canon          *state.CanonStore
	Limiter        *RateLimiter
	Info           SystemInfo
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewServer builds the route table and middleware chain.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orch:    opts.Orchestrator,
		gate:    opts.Gate,
		prefs:   opts.Prefs,
		canon:   opts.Canon,
		limiter: opts.Limiter,
		info:    opts.Info,
		logger:  logger,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/v1/chat/message", s.handleChatMessage)
	s.mux.HandleFunc("GET /api/v1/chat/history/{session_id}", s.handleChatHistory)
	s.mux.HandleFunc("DELETE /api/v1/chat/session/{session_id}", s.handleClearSession)
	s.mux.HandleFunc("POST /api/v1/chat/session/new", s.handleNewSession)

	s.mux.HandleFunc("GET /api/v1/memory/preferences/{user_id}", s.handleGetPreferences)
	s.mux.HandleFunc("PUT /api/v1/memory/preferences", s.handlePutPreferences)
	s.mux.HandleFunc("GET /api/v1/memory/canon", s.handleGetCanon)
	s.mux.HandleFunc("PUT /api/v1/memory/canon", s.handlePutCanon)
	s.mux.HandleFunc("GET /api/v1/memory/canon/info", s.handleCanonInfo)

	s.mux.HandleFunc("GET /api/v1/system/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/system/models", s.handleModels)
	s.mux.HandleFunc("GET /api/v1/system/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/system/config", s.handleConfig)
	s.mux.HandleFunc("GET /api/v1/system/capabilities", s.handleCapabilities)

	middlewares := []Middleware{
		Recovery(logger),
		Logging(logger),
		CORS(opts.AllowedOrigins),
	}
	if opts.Limiter != nil {
		middlewares = append(middlewares, RateLimit(opts.Limiter, logger))
	}
	s.handler = Chain(middlewares...)(s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"application": s.info.AppName,
		"version":     s.info.Version,
		"status":      "operational",
		"model":       s.info.Model,
		"developer":   "VelaPlex Systems",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   s.info.Version,
		"model":     s.info.Model,
		"uptime":    time.Since(s.started).Seconds(),
		"timestamp": time.Now().UTC(),
	})
}

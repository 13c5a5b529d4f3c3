// Package api serves editing sessions over HTTP.
//
// A client creates a session from HTML or Markdown, moves the selection,
// dispatches commands and reads back the exported HTML and toolbar state.
// All bodies are JSON except image uploads, which are multipart forms.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/codec"
	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/toolbar"
	"github.com/dshills/folio/internal/media"
)

// Defaults for a Server.
const (
	DefaultSessionTTL   = 30 * time.Minute
	DefaultMaxBodyBytes = 16 << 20
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngineFactory sets how session engines are created.
func WithEngineFactory(fn func() *engine.Engine) Option {
	return func(s *Server) {
		if fn != nil {
			s.newEngine = fn
		}
	}
}

// WithCodec sets the codec used by the render endpoint.
func WithCodec(c *codec.Codec) Option {
	return func(s *Server) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithUploader enables image uploads.
func WithUploader(u media.Uploader) Option {
	return func(s *Server) {
		s.uploader = u
	}
}

// WithMediaDir serves the files in dir below prefix.
func WithMediaDir(dir, prefix string) Option {
	return func(s *Server) {
		s.mediaDir = dir
		s.mediaPrefix = "/" + strings.Trim(prefix, "/") + "/"
	}
}

// WithSessionTTL sets how long an unused session lives.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = d
	}
}

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server is the HTTP API.
type Server struct {
	router    chi.Router
	sessions  *Store
	newEngine func() *engine.Engine
	codec     *codec.Codec
	uploader  media.Uploader
	logger    *zap.Logger

	mediaDir    string
	mediaPrefix string
	sessionTTL  time.Duration
	maxBody     int64
}

// NewServer creates and configures the HTTP server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		newEngine:  func() *engine.Engine { return engine.New() },
		codec:      codec.Default(),
		logger:     zap.NewNop(),
		sessionTTL: DefaultSessionTTL,
		maxBody:    DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("api")
	s.sessions = NewStore(s.sessionTTL)
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session store.
func (s *Server) Sessions() *Store {
	return s.sessions
}

// Close ends every session.
func (s *Server) Close() {
	s.sessions.Flush()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/uploads", s.handleUpload)
		r.Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.loadSession)

			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/html", s.handleSessionHTML)
			r.Get("/history", s.handleHistory)
			r.Put("/selection", s.handleSelect)
			r.Post("/commands", s.handleCommands)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/images", s.handleInsertImage)
		})
	})

	if s.mediaDir != "" {
		files := http.StripPrefix(s.mediaPrefix, http.FileServer(http.Dir(s.mediaDir)))
		r.Get(s.mediaPrefix+"*", files.ServeHTTP)
	}

	s.router = r
}

func (s *Server) toolbarOptions() []toolbar.Option {
	opts := []toolbar.Option{toolbar.WithLogger(s.logger)}
	if s.uploader != nil {
		opts = append(opts, toolbar.WithUploader(s.uploader))
	}
	return opts
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// Package server provides the local HTTP API for SmartStudy sessions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/config"
	"github.com/hyperjump/smartstudy/internal/history"
	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/internal/pipeline"
)

// maxUploadBytes bounds multipart bodies accepted by the file endpoint.
const maxUploadBytes = 64 << 20

// SessionFactory builds a new pipeline for the session id.
type SessionFactory func(id string) *pipeline.App

// HistoryService lists and searches recorded sessions.
type HistoryService interface {
	List(ctx context.Context, limit int) ([]*models.SessionRecord, error)
	Search(ctx context.Context, query string, limit int) (*history.SearchResult, error)
}

// VoiceSource provides the loaded voice catalog.
type VoiceSource interface {
	Voices() []models.Voice
}

// StatusFunc reports service status for GET /api/v1/status.
type StatusFunc func(ctx context.Context) (interface{}, error)

// Server is the HTTP server for the SmartStudy API.
type Server struct {
	sessions    *sessionRegistry
	history     HistoryService
	voices      VoiceSource
	status      StatusFunc
	defaultLang string
	config      *config.ServerConfig
	logger      *zap.Logger
	server      *http.Server

	// runCtx outlives requests; pipelines started by a request run under it.
	runCtx    context.Context
	runCancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /api/v1/history.
func WithHistory(h HistoryService) Option {
	return func(s *Server) { s.history = h }
}

// WithVoices enables GET /api/v1/voices.
func WithVoices(v VoiceSource) Option {
	return func(s *Server) { s.voices = v }
}

// WithStatus sets the status reporter.
func WithStatus(fn StatusFunc) Option {
	return func(s *Server) { s.status = fn }
}

// WithDefaultLanguage sets the language used by speak requests without one.
func WithDefaultLanguage(lang string) Option {
	return func(s *Server) { s.defaultLang = lang }
}

// NewServer creates a server that builds sessions with newSession.
func NewServer(newSession SessionFactory, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		sessions:    newSessionRegistry(newSession),
		defaultLang: "en",
		config:      cfg,
		logger:      logger,
		runCtx:      ctx,
		runCancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg != nil && cfg.SessionTTL > 0 {
		go s.sessions.expireIdle(ctx, cfg.SessionTTL, logger)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/file", s.handleSelectFile)
			r.Put("/summary-type", s.handleSetSummaryType)
			r.Post("/upload", s.handleUpload)
			r.Post("/speak", s.handleSpeak)
			r.Get("/export.pdf", s.handleExportPDF)
			r.Get("/export.docx", s.handleExportDOCX)
		})
		r.Get("/voices", s.handleVoices)
		r.Get("/history", s.handleHistory)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server. In-flight pipelines see their context cancelled.
func (s *Server) Stop(ctx context.Context) error {
	s.runCancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

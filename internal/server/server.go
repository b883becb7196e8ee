// Package server provides the HTTP API for answerdesk.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/answerdesk/internal/config"
	"github.com/hyperjump/answerdesk/internal/importer"
	"github.com/hyperjump/answerdesk/internal/messages"
	"github.com/hyperjump/answerdesk/internal/search"
	"github.com/hyperjump/answerdesk/internal/storage"
	"go.uber.org/zap"
)

// WatchService manages watched bundle directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// StateCounter reports how many state entries are stored.
type StateCounter func(ctx context.Context) (int64, error)

// Server is the HTTP server for the answerdesk API.
type Server struct {
	engine     *search.Engine
	messages   *messages.Service
	importer   *importer.Importer
	storage    storage.Storage
	config     *config.Config
	logger     *zap.Logger
	countState StateCounter

	watch      WatchService
	configPath string
	configMu   sync.Mutex

	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath is set, directory
// changes are saved back to the config file.
func WithWatch(watch WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = watch
		s.configPath = configPath
	}
}

// WithStateCounter overrides how the status endpoint counts state entries.
func WithStateCounter(fn StateCounter) Option {
	return func(s *Server) { s.countState = fn }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	msgs *messages.Service,
	imp *importer.Importer,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:     engine,
		messages:   msgs,
		importer:   imp,
		storage:    store,
		config:     cfg,
		logger:     logger,
		countState: store.CountState,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with every API route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/messages", s.handleMessages)
		r.Get("/answers", s.handleListAnswers)
		r.Post("/answers", s.handleCreateAnswer)
		r.Get("/answers/{id}", s.handleGetAnswer)
		r.Delete("/answers/{id}", s.handleDeleteAnswer)
		r.Get("/status", s.handleStatus)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Post("/search", s.handleSearch)
	r.Get("/messages", s.handleMessages)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Package server exposes the packer over HTTP.
//
// Routes:
//
//	GET  /healthz   liveness check
//	GET  /version   build information
//	POST /v1/pack   pack a list of rectangle sizes
//
// The pack endpoint takes sizes, not images, so clients can lay out sheets
// they composite themselves. Layouts go through a [pipeline.Runner], so a
// server started with a Redis cache shares packed layouts across instances.
//
// Every response carries an X-Request-Id header. Errors are JSON objects
// with a machine-readable code:
//
//	{"code": "INVALID_DIMENSION", "message": "block 2 (coin) has size 0x16"}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

const (
	// DefaultMaxBlocks bounds the blocks accepted by one pack request.
	DefaultMaxBlocks = 4096

	// MaxSide bounds each side of a requested block.
	MaxSide = 1 << 15

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP API. It is an http.Handler.
type Server struct {
	router    chi.Router
	runner    *pipeline.Runner
	logger    *log.Logger
	maxBlocks int
}

// Option configures a Server.
type Option func(*Server)

// WithRunner sets the runner used for packing. The default runner has no
// cache.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBlocks sets the largest block count accepted by /v1/pack. Values
// below one keep the default.
func WithMaxBlocks(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBlocks = n
		}
	}
}

// New creates a Server with its routes mounted.
func New(opts ...Option) *Server {
	s := &Server{maxBlocks: DefaultMaxBlocks}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/pack", s.handlePack)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

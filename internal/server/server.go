// Package server exposes a loaded store through a read-only JSON API.
//
// Routes:
//
//	GET /health                 liveness probe
//	GET /stats                  node, array, reference and orphan counts
//	GET /nodes                  every node in creation order
//	GET /nodes/{id}             the node's record
//	GET /nodes/{id}/dump        records reachable from the node (?skip=a,b)
//	GET /nodes/{id}/snapshot    deep plain copy of the node
//	GET /orphans                ids of unreferenced nodes
//	GET /schemas                registered schema ids
//	GET /schemas/*              one schema, by id or structural path
//
// Node ids are path-unescaped, so ids containing "#" or "/" must be
// percent-encoded by clients. Every request reports to the HTTP hooks of
// pkg/observability.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scatter/pkg/store"
)

// Config holds server configuration.
type Config struct {
	// Addr to listen on (default ":8080"). Use ":0" for a random port.
	Addr string

	// Logger for request and lifecycle logs (default log.Default()).
	Logger *log.Logger
}

// Server serves one store. Requests are serialized on a mutex since the
// store is not safe for concurrent use.
type Server struct {
	store  *store.Store
	mu     sync.Mutex
	logger *log.Logger
	addr   string

	router   chi.Router
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// New creates a server for s. It does not listen until Start.
func New(s *store.Store, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	srv := &Server{
		store:  s,
		logger: cfg.Logger,
		addr:   cfg.Addr,
	}
	srv.router = srv.routes()
	return srv
}

// Handler returns the API router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/orphans", s.handleOrphans)

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.handleNodes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleNode)
			r.Get("/dump", s.handleDump)
			r.Get("/snapshot", s.handleSnapshot)
		})
	})

	r.Get("/schemas", s.handleSchemas)
	r.Get("/schemas/*", s.handleSchema)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	return r
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info("serving store", "addr", ln.Addr().String(), "nodes", s.store.Len())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	<-s.done
	s.logger.Info("server stopped")
	return err
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

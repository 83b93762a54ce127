package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidbz/affirmrelay/internal/config"
	"github.com/davidbz/affirmrelay/internal/http/middleware"
	"github.com/davidbz/affirmrelay/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	metrics     *observability.Metrics

	once sync.Once
	srv  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		config:      *cfg,
		handler:     handler,
		middlewares: middlewares,
		metrics:     metrics,
	}
}

// Routes builds the router with the middleware chain applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/generate-affirmation", s.handler.HandleGenerate)
	r.Get("/health", s.handler.HandleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	if s.middlewares == nil {
		return r
	}
	return s.middlewares(r)
}

func (s *Server) server() *http.Server {
	s.once.Do(func() {
		s.srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", s.config.Port),
			Handler:           s.Routes(),
			ReadHeaderTimeout: time.Duration(s.config.ReadTimeout) * time.Second,
			ReadTimeout:       time.Duration(s.config.ReadTimeout) * time.Second,
			// Zero keeps long streams alive; the relay bounds them itself.
			WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		}
	})
	return s.srv
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start() error {
	srv := s.server()

	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if err := s.server().Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// Package web serves the identification HTTP API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/kozaktomas/facebank/internal/web/handlers"
	"github.com/kozaktomas/facebank/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	policy     identity.Policy
	identifier handlers.Identifier
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server. identifier may be nil, in which case
// the identify endpoint answers 503.
func NewServer(cfg *config.Config, policy identity.Policy, identifier handlers.Identifier, port int, host string) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		policy:     policy,
		identifier: identifier,
		router:     r,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(constants.RequestTimeoutMinutes * time.Minute))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: constants.RequestTimeoutMinutes*time.Minute + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

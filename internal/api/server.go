// Package api serves the prediction cache over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-scout/internal/cache"
	"github.com/yourusername/prop-scout/internal/metrics"
)

// PredictionService is the orchestrator surface the HTTP layer reads from.
// Handlers only ever take snapshots and fire single-flight refresh triggers;
// they never block on a pipeline.
type PredictionService interface {
	Domains() []string
	Snapshot(domain string) (cache.Snapshot, error)
	RefreshDomain(ctx context.Context, domain string) error
}

// Config holds the API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
}

// Server is the prediction API HTTP server.
type Server struct {
	cfg        Config
	service    PredictionService
	hub        *Hub
	logger     *logrus.Logger
	httpServer *http.Server
}

// NewServer creates the API server. hub may be nil when the WebSocket
// surface is disabled.
func NewServer(cfg Config, service PredictionService, hub *Hub, logger *logrus.Logger) *Server {
	return &Server{cfg: cfg, service: service, hub: hub, logger: logger}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/predictions/{domain}", s.handleGetPredictions).Methods(http.MethodGet)
	api.HandleFunc("/predictions/{domain}/status", s.handleGetStatus).Methods(http.MethodGet)
	api.HandleFunc("/predictions/{domain}/refresh", s.handlePostRefresh).Methods(http.MethodPost)

	if s.cfg.MetricsEnabled {
		path := s.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, metrics.Handler()).Methods(http.MethodGet)
	}

	if s.hub != nil {
		router.HandleFunc("/ws", s.handleWebSocket)
	}

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(router)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.WithField("port", s.cfg.Port).Info("Prediction API server starting")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Prediction API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

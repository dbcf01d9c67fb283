package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/config"
	"github.com/ameeeetster/iga-risk-engine/internal/metrics"
)

// Server is the HTTP front of the decision core.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer assembles the middleware stack around the handler routes.
func NewServer(cfg *config.Config, handler *Handler, registry *metrics.Registry, logger *slog.Logger) *Server {
	stack := chain(handler.Routes(),
		recoveryMiddleware(logger),
		requestIDMiddleware,
		tracingMiddleware,
		loggingMiddleware(logger),
		metricsMiddleware(registry),
		rateLimitMiddleware(cfg.Security.RateLimit.RequestsPerSecond, cfg.Security.RateLimit.BurstSize),
	)

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      stack,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

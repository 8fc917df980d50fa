// Package server provides the operational HTTP surface of the engine:
// health and Prometheus metrics. The engine exposes no domain endpoints;
// alert and rule CRUD belong to the platform API layer.
package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flexmon-go/internal/config"
)

// Server is the ops HTTP server.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger
}

// NewServer creates the ops server with its routes configured.
func NewServer(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
	})

	s := &Server{
		app:    app,
		config: cfg,
		logger: logger,
	}

	app.Use(recover.New())

	app.Get("/healthz", s.healthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return s
}

// healthCheck reports liveness.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting ops HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ops HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// Package server exposes analyses over an HTTP JSON API.
package server

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/huangsam/repolens/core"
	"github.com/huangsam/repolens/internal/contract"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long in-flight requests may run after the context ends.
const shutdownTimeout = 10 * time.Second

// Server serves the repolens HTTP API.
type Server struct {
	app *fiber.App
	cfg *contract.Config
	svc *core.Service
}

// New builds the fiber app and registers every route.
func New(cfg *contract.Config, svc *core.Service) *Server {
	app := fiber.New(fiber.Config{
		AppName: "repolens",
		// Analyses clone whole repositories, so writes get a generous deadline.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	})
	app.Use(recover.New())
	app.Use(requestLogger)

	s := &Server{app: app, cfg: cfg, svc: svc}
	s.register()
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) register() {
	s.app.Get("/healthz", s.handleHealth)

	api := s.app.Group("/api")
	api.Post("/analyze", s.handleAnalyze)
	api.Get("/analyses", s.handleListAnalyses)
	api.Get("/analyses/:id", s.handleGetAnalysis)
	api.Get("/search", s.handleSearch)
	api.Post("/ask", s.handleAsk)
}

// Start listens on the configured address until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		contract.LogInfo("HTTP server listening", zap.String("addr", s.cfg.Listen))
		errCh <- s.app.Listen(s.cfg.Listen, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown HTTP server")
		}
		return nil
	}
}

// requestLogger logs one line per request through the process logger.
func requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	contract.LogDebug("HTTP request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("elapsed", time.Since(start)))
	return err
}

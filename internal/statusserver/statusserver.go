// Package statusserver exposes a small read-only fiber HTTP endpoint
// reporting the Supervisor's current worker state, grounded on the
// teacher's /healthz and /metrics endpoints in internal/http/router.go.
// It is an additive operator convenience (SPEC_FULL.md §9), gated by
// config.StatusServerConfig, not one of spec.md's named backend RPCs.
package statusserver

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// WorkerView is one worker slot as rendered to an operator.
type WorkerView struct {
	ID        int    `json:"id"`
	Busy      bool   `json:"busy"`
	RequestID string `json:"requestId,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Snapshotter is the subset of *worker.Supervisor the status server
// depends on, narrowed so this package never imports internal/worker
// directly (keeps the dependency direction worker -> statusserver free).
type Snapshotter interface {
	Snapshot() []WorkerView
	ShutdownRequested() bool
}

// Server wraps a fiber.App exposing /healthz and /workers.
type Server struct {
	app *fiber.App
}

// New builds the status server. snap is polled fresh on every request;
// nothing is cached.
func New(snap Snapshotter, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		if logger != nil {
			logger.Debug("status request", "method", c.Method(), "path", c.Path(), "status", c.Response().StatusCode())
		}
		return err
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if snap.ShutdownRequested() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "shutting_down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/workers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"workers": snap.Snapshot()})
	})

	return &Server{app: app}
}

// Listen blocks serving on addr (e.g. ":9091").
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server, used on daemon interrupt.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

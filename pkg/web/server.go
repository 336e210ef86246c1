// Package web serves the local control API and the diagnostic
// websocket stream over the running device.
package web

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/rufuslabs/go-rufus/pkg/hub"
	"github.com/rufuslabs/go-rufus/pkg/rufus"
)

// requestTimeout bounds how long a handler waits on the control loop.
const requestTimeout = 2 * time.Second

// Server is the HTTP surface over the control loop. Every mutating
// route goes through the loop, so web requests and link commands see
// the same busy policy.
type Server struct {
	app    *fiber.App
	device *rufus.App
	addr   string
	logger *slog.Logger
}

// NewServer builds the router. The device must be initialized before
// Start is called.
func NewServer(device *rufus.App, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		device: device,
		addr:   addr,
		logger: logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "rufusd",
		DisableStartupMessage: true,
	})

	// CORS for local tooling
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/gestures", s.handleListGestures)
	api.Post("/gestures/:name", s.handleTriggerGesture)
	api.Post("/servo", s.handleServo)
	api.Post("/play", s.handlePlay)
	api.Post("/volume", s.handleVolume)
	api.Post("/storage/reinit", s.handleStorageReinit)
	api.Post("/command", s.handleCommand)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/diag", websocket.New(s.handleDiagWS))

	s.app = app
	return s
}

// Start serves until Shutdown. It blocks.
func (s *Server) Start() error {
	s.logger.Info("web server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleDiagWS attaches an observer to the diagnostic stream. The
// client gets one status snapshot up front, then every line the
// device writes to the link.
func (s *Server) handleDiagWS(c *websocket.Conn) {
	if data, err := json.Marshal(s.device.Status()); err == nil {
		c.WriteJSON(hub.StatusEvent(data, time.Now()))
	}
	hub.NewClient(s.device.DiagHub(), c).Run()
}

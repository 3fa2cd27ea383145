// Package web exposes the conversation controls over HTTP. It mirrors
// the dashboard surface as a JSON API plus a websocket event feed, and
// talks to the application through a narrow Controller interface.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/LumiBunny/BnuuyBotApp/pkg/hub"
	"github.com/LumiBunny/BnuuyBotApp/pkg/speech"
)

// State is the poll payload returned by GET /api/state.
type State struct {
	CurrentText    string         `json:"current_text"`
	History        []speech.Entry `json:"history"`
	Responses      []speech.Entry `json:"llm_responses"`
	SystemMessages []speech.Entry `json:"system_messages"`
	IsActive       bool           `json:"is_active"`
	TimerActive    bool           `json:"timer_active"`
	UserID         string         `json:"user_id"`
}

// Controller is what the web layer needs from the application. All
// reads return snapshots; the server never holds application locks.
type Controller interface {
	Snapshot() State
	StartListening() error
	StopListening() error
	StartTimer() error
	StopTimer() error
	SendMessage(text string) error
	AddSystemMessage(text string) error
	SetUserID(id string) error
	Clear()
	EndSession() error
}

// Server is the HTTP and websocket front end.
type Server struct {
	app    *fiber.App
	port   string
	ctrl   Controller
	events *hub.Hub
	logger *slog.Logger
}

// NewServer builds the server and its routes.
func NewServer(port string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:   port,
		ctrl:   ctrl,
		events: hub.New("events", logger),
		logger: logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "BnuuyBot",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/listen/start", s.handleListenStart)
	api.Post("/listen/stop", s.handleListenStop)
	api.Post("/timer/start", s.handleTimerStart)
	api.Post("/timer/stop", s.handleTimerStop)
	api.Post("/message", s.handleMessage)
	api.Post("/system-message", s.handleSystemMessage)
	api.Post("/user", s.handleSetUser)
	api.Post("/clear", s.handleClear)
	api.Post("/session/end", s.handleEndSession)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the event hub and listens for connections. It blocks.
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("web interface listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in its own goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// BroadcastEvent pushes an event to every websocket subscriber.
func (s *Server) BroadcastEvent(v any) {
	if err := s.events.BroadcastJSON(v); err != nil {
		s.logger.Warn("failed to broadcast event", "error", err)
	}
}

// Shutdown stops the listener and disconnects websocket clients.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.events.Stop()
	return err
}

// handleEventsWS attaches a websocket client to the event hub.
func (s *Server) handleEventsWS(conn *websocket.Conn) {
	hub.NewClient(s.events, conn).Run()
}

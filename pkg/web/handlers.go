package web

import "github.com/gofiber/fiber/v2"

// actionResponse is the common shape for control endpoints.
type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(c *fiber.Ctx, message string) error {
	return c.JSON(actionResponse{Success: true, Message: message})
}

func failed(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(actionResponse{Success: false, Message: message})
}

// handleState returns the full poll payload for the UI.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Snapshot())
}

func (s *Server) handleListenStart(c *fiber.Ctx) error {
	if err := s.ctrl.StartListening(); err != nil {
		return failed(c, fiber.StatusConflict, err.Error())
	}
	return ok(c, "Transcription started")
}

func (s *Server) handleListenStop(c *fiber.Ctx) error {
	if err := s.ctrl.StopListening(); err != nil {
		return failed(c, fiber.StatusConflict, err.Error())
	}
	return ok(c, "Transcription stopped")
}

func (s *Server) handleTimerStart(c *fiber.Ctx) error {
	if err := s.ctrl.StartTimer(); err != nil {
		return failed(c, fiber.StatusConflict, err.Error())
	}
	return ok(c, "Timer started")
}

func (s *Server) handleTimerStop(c *fiber.Ctx) error {
	if err := s.ctrl.StopTimer(); err != nil {
		return failed(c, fiber.StatusConflict, err.Error())
	}
	return ok(c, "Timer stopped")
}

// messageRequest carries user text for /api/message and
// /api/system-message.
type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return failed(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return failed(c, fiber.StatusBadRequest, "Empty message")
	}
	if err := s.ctrl.SendMessage(req.Message); err != nil {
		return failed(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, "Message sent")
}

func (s *Server) handleSystemMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return failed(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return failed(c, fiber.StatusBadRequest, "Empty message")
	}
	if err := s.ctrl.AddSystemMessage(req.Message); err != nil {
		return failed(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, "System message added")
}

// userRequest carries the user id for /api/user.
type userRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleSetUser(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return failed(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.ctrl.SetUserID(req.UserID); err != nil {
		return failed(c, fiber.StatusBadRequest, err.Error())
	}
	return ok(c, "User ID set to: "+req.UserID)
}

func (s *Server) handleClear(c *fiber.Ctx) error {
	s.ctrl.Clear()
	return ok(c, "History cleared")
}

func (s *Server) handleEndSession(c *fiber.Ctx) error {
	if err := s.ctrl.EndSession(); err != nil {
		return failed(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, "Chat session ended successfully.")
}

package web

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rufuslabs/go-rufus/pkg/command"
	"github.com/rufuslabs/go-rufus/pkg/gesture"
	"github.com/rufuslabs/go-rufus/pkg/motion"
)

// ServoRequest is the body for a direct channel move.
type ServoRequest struct {
	Channel string `json:"channel"`
	Angle   int    `json:"angle"`
}

// VolumeRequest is the body for a codec volume change.
type VolumeRequest struct {
	Level int `json:"level"`
}

// CommandRequest carries one raw link line to inject into the
// interpreter. Its diagnostics show up on the link and the ws stream,
// not in the response.
type CommandRequest struct {
	Line string `json:"line"`
}

func (s *Server) reqCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// handleHealth reports liveness and readiness in one probe.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":    true,
		"ready": s.device.Ready(),
	})
}

// handleStatus returns the full device snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.device.Status())
}

// handleListGestures returns the registered gesture names.
func (s *Server) handleListGestures(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"gestures": s.device.Gestures()})
}

// handleTriggerGesture starts or queues a gesture by name.
func (s *Server) handleTriggerGesture(c *fiber.Ctx) error {
	name := c.Params("name")

	ctx, cancel := s.reqCtx(c)
	defer cancel()

	queued, err := s.device.TriggerGesture(ctx, name)
	switch {
	case errors.Is(err, gesture.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown gesture: " + name,
		})
	case errors.Is(err, command.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "device busy",
		})
	case err != nil:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"gesture": name,
		"state":   submitState(queued),
	})
}

// handleServo applies a direct single channel move. Out-of-range
// angles come back clamped in the response rather than erroring, the
// same as on the link.
func (s *Server) handleServo(c *fiber.Ctx) error {
	var req ServoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Channel == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "channel is required",
		})
	}

	ctx, cancel := s.reqCtx(c)
	defer cancel()

	applied, err := s.device.MoveChannel(ctx, req.Channel, req.Angle)
	switch {
	case errors.Is(err, motion.ErrUnknownChannel):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, command.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "device busy",
		})
	case err != nil:
		// The commanded angle holds even when the bus write fails.
		s.logger.Warn("servo write degraded", "channel", req.Channel, "error", err)
	}

	return c.JSON(fiber.Map{
		"channel": req.Channel,
		"angle":   applied,
	})
}

// handlePlay starts or queues playback of the audio file.
func (s *Server) handlePlay(c *fiber.Ctx) error {
	ctx, cancel := s.reqCtx(c)
	defer cancel()

	queued, err := s.device.TriggerPlay(ctx)
	switch {
	case errors.Is(err, command.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "device busy",
		})
	case err != nil:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"state": submitState(queued)})
}

// handleVolume sets the codec output volume.
func (s *Server) handleVolume(c *fiber.Ctx) error {
	var req VolumeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Level < 0 || req.Level > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "level must be in 0..100",
		})
	}

	if err := s.device.SetVolume(req.Level); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"volume": req.Level})
}

// handleStorageReinit remounts the storage volume after a media swap.
func (s *Server) handleStorageReinit(c *fiber.Ctx) error {
	if err := s.device.ReinitStorage(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"storage": "ok"})
}

// handleCommand feeds one raw line through the interpreter, exactly as
// if it had arrived on the serial link.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Line) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "line is required",
		})
	}

	ctx, cancel := s.reqCtx(c)
	defer cancel()

	if err := s.device.SubmitLine(ctx, req.Line); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"accepted": true})
}

func submitState(queued bool) string {
	if queued {
		return "queued"
	}
	return "started"
}

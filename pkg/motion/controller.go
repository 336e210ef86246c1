// Package motion drives Rufus's actuator channels. All movement requests
// flow through the Controller so range clamping and commanded-angle
// tracking happen in one place.
package motion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rufuslabs/go-rufus/pkg/servo"
)

// Controller owns the channel set and a position writer. It tracks the
// commanded angle per channel; there is no feedback path from the servos,
// so the commanded angle is the channel state.
type Controller struct {
	writer servo.PositionWriter
	logger *slog.Logger

	mu       sync.RWMutex
	channels []servo.Channel
	byName   map[string]int
	current  map[string]int
}

// NewController creates a controller over the given channels.
// Commanded angles start at each channel's rest angle; the startup
// sequence drives the hardware there before the first command.
func NewController(channels []servo.Channel, writer servo.PositionWriter, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	byName := make(map[string]int, len(channels))
	current := make(map[string]int, len(channels))
	for i, ch := range channels {
		byName[ch.Name] = i
		current[ch.Name] = ch.Rest
	}

	return &Controller{
		writer:   writer,
		logger:   logger,
		channels: channels,
		byName:   byName,
		current:  current,
	}
}

// SetAngle clamps angle to the channel's range, writes the output and
// returns the applied value. Clamping never errors; only an unknown
// channel or a bus write failure does. The commanded angle updates even
// when the write fails, matching the write-and-forget servo model.
func (c *Controller) SetAngle(ctx context.Context, name string, angle int) (int, error) {
	c.mu.Lock()
	idx, ok := c.byName[name]
	if !ok {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}

	ch := c.channels[idx]
	applied := ch.Clamp(angle)
	c.current[name] = applied
	c.mu.Unlock()

	if err := c.writer.WriteAngle(ctx, ch.ID, applied); err != nil {
		c.logger.Error("servo write failed", "channel", name, "angle", applied, "error", err)
		return applied, err
	}

	c.logger.Debug("servo set", "channel", name, "angle", applied)
	return applied, nil
}

// RestAll drives every channel to its rest angle in declaration order.
// It keeps going past write failures and returns the first one.
func (c *Controller) RestAll(ctx context.Context) error {
	c.mu.RLock()
	channels := c.channels
	c.mu.RUnlock()

	var firstErr error
	for _, ch := range channels {
		if _, err := c.SetAngle(ctx, ch.Name, ch.Rest); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Angle returns the commanded angle for a channel.
func (c *Controller) Angle(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	angle, ok := c.current[name]
	return angle, ok
}

// Angles returns a snapshot of all commanded angles.
func (c *Controller) Angles() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.current))
	for name, angle := range c.current {
		out[name] = angle
	}
	return out
}

// Channel returns the descriptor for a channel name.
func (c *Controller) Channel(name string) (servo.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byName[name]
	if !ok {
		return servo.Channel{}, false
	}
	return c.channels[idx], true
}

// Channels returns the channel descriptors in declaration order.
func (c *Controller) Channels() []servo.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]servo.Channel, len(c.channels))
	copy(out, c.channels)
	return out
}

// AtRest reports whether every commanded angle equals its rest angle.
func (c *Controller) AtRest() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if c.current[ch.Name] != ch.Rest {
			return false
		}
	}
	return true
}

package codec

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// DeviceSink writes audio chunks to the codec's device node. The node is
// opened lazily on the first Reset so the daemon can start before the
// driver is loaded.
type DeviceSink struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	f      *os.File
	volume int
	closed bool
}

// NewDeviceSink creates a device-backed sink.
func NewDeviceSink(cfg Config, logger *slog.Logger) *DeviceSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeviceSink{cfg: cfg, logger: logger, volume: cfg.Volume}
}

// Reset opens the device node if needed and starts a fresh stream.
func (d *DeviceSink) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return io.ErrClosedPipe
	}

	if d.f == nil {
		f, err := os.OpenFile(d.cfg.Device, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open codec %s: %w", d.cfg.Device, err)
		}
		d.f = f
		d.logger.Info("codec device opened", "device", d.cfg.Device)
	}

	return d.applyVolume(d.volume)
}

// Write delivers one chunk to the device.
func (d *DeviceSink) Write(chunk []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.f == nil {
		return io.ErrClosedPipe
	}
	if _, err := d.f.Write(chunk); err != nil {
		return fmt.Errorf("codec write: %w", err)
	}
	return nil
}

// SetVolume sets the playback level via the driver attribute when one is
// configured.
func (d *DeviceSink) SetVolume(level int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	d.volume = level
	return d.applyVolume(level)
}

func (d *DeviceSink) applyVolume(level int) error {
	if d.cfg.VolumePath == "" {
		d.logger.Debug("codec volume recorded", "level", level)
		return nil
	}
	if err := os.WriteFile(d.cfg.VolumePath, fmt.Appendf(nil, "%d\n", level), 0o644); err != nil {
		return fmt.Errorf("codec volume: %w", err)
	}
	d.logger.Debug("codec volume set", "level", level)
	return nil
}

// Volume returns the current level.
func (d *DeviceSink) Volume() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// Name returns "device".
func (d *DeviceSink) Name() string {
	return "device"
}

// Close releases the device node.
func (d *DeviceSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.f != nil {
		err := d.f.Close()
		d.f = nil
		return err
	}
	return nil
}

var _ Sink = (*DeviceSink)(nil)

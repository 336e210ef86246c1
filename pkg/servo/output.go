package servo

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend selects the position output driver.
type Backend string

const (
	// BackendAuto tries the feetech bus and falls back to mock.
	BackendAuto Backend = "auto"
	// BackendFeetech drives an STS servo bus.
	BackendFeetech Backend = "feetech"
	// BackendMock records writes without hardware.
	BackendMock Backend = "mock"
)

// Config holds servo output configuration.
type Config struct {
	// Backend selects the driver. Default: "auto".
	Backend Backend `yaml:"backend" json:"backend"`

	// Port is the servo bus serial device.
	Port string `yaml:"port" json:"port"`

	// BaudRate is the bus speed. STS servos run at 1M.
	BaudRate int `yaml:"baud_rate" json:"baud_rate"`

	// IDs are the bus servo IDs the writer will address.
	IDs []int `yaml:"ids" json:"ids"`
}

// DefaultConfig returns a Config matching the reference hardware.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendAuto,
		Port:     "/dev/ttyACM0",
		BaudRate: 1_000_000,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate)
	}
	if len(c.IDs) == 0 {
		return fmt.Errorf("at least one servo ID is required")
	}
	return nil
}

// PositionWriter moves one servo to an absolute angle in degrees.
// Implementations must tolerate any angle the channels can produce;
// range enforcement happens above this layer.
type PositionWriter interface {
	WriteAngle(ctx context.Context, id, angle int) error
	Name() string
	Close() error
}

// NewWriter creates a position writer for the configured backend.
// With BackendAuto a failed bus open degrades to the mock writer so the
// daemon keeps running without hardware.
func NewWriter(ctx context.Context, cfg Config, logger *slog.Logger) (PositionWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendMock:
		return NewMockWriter(logger), nil
	case BackendFeetech:
		return newBusWriter(ctx, cfg, logger)
	case BackendAuto, "":
		w, err := newBusWriter(ctx, cfg, logger)
		if err != nil {
			logger.Warn("servo bus unavailable, using mock outputs", "port", cfg.Port, "error", err)
			return NewMockWriter(logger), nil
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

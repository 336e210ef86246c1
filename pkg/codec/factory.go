package codec

import (
	"fmt"
	"log/slog"
	"os"
)

// New creates an audio sink with the given configuration.
// With BackendAuto the device backend is chosen when the node exists,
// otherwise the mock keeps the daemon functional without a codec.
func New(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = detectBackend(cfg, logger)
	}

	logger.Info("creating codec sink", "backend", backend, "device", cfg.Device, "volume", cfg.Volume)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendDevice:
		return NewDeviceSink(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

func detectBackend(cfg Config, logger *slog.Logger) Backend {
	if _, err := os.Stat(cfg.Device); err != nil {
		logger.Warn("codec device not found, using mock sink", "device", cfg.Device, "error", err)
		return BackendMock
	}
	return BackendDevice
}

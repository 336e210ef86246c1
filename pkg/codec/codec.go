// Package codec feeds audio data to the playback codec.
//
// The codec decodes compressed audio itself; the daemon only delivers
// opaque byte chunks. Two backends exist: a device backend writing to the
// codec's device node, and a mock for tests and hardware-free runs. The
// backend is selected by configuration, with auto-detection by probing
// the device node.
package codec

import "fmt"

// Backend represents the codec backend type.
type Backend string

const (
	// BackendAuto selects the device backend when the node exists.
	BackendAuto Backend = "auto"
	// BackendDevice writes to the codec device node.
	BackendDevice Backend = "device"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds codec sink configuration.
type Config struct {
	// Backend specifies which sink backend to use. Default: "auto".
	Backend Backend `yaml:"backend" json:"backend"`

	// Device is the codec data node.
	Device string `yaml:"device" json:"device"`

	// VolumePath is an optional driver attribute file for volume writes.
	// Empty means the driver has no volume control and SetVolume only
	// records the level.
	VolumePath string `yaml:"volume_path" json:"volume_path"`

	// Volume is the initial volume level, 0 (mute) to 100.
	Volume int `yaml:"volume" json:"volume"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendAuto,
		Device:  "/dev/vs1053",
		Volume:  40,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("volume must be in 0..100, got %d", c.Volume)
	}
	if c.Backend != BackendMock && c.Device == "" {
		return fmt.Errorf("device is required for backend %q", c.Backend)
	}
	return nil
}

// Sink accepts audio chunks for playback.
type Sink interface {
	// Reset prepares the codec for a new stream, discarding any
	// buffered data.
	Reset() error
	// Write delivers one chunk of audio data.
	Write(chunk []byte) error
	// SetVolume sets the playback level, 0 to 100.
	SetVolume(level int) error
	// Name identifies the backend.
	Name() string
	// Close releases the device.
	Close() error
}

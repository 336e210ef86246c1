// Package config loads rufusd configuration from the environment, with an
// optional YAML file for overriding the built-in channel and gesture tables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the rufusd runtime configuration. Every field has a
// RUFUS_* environment variable; defaults match the reference hardware.
type Config struct {
	// Command link
	SerialPort  string `env:"RUFUS_SERIAL_PORT" envDefault:"/dev/serial0"`
	SerialBaud  int    `env:"RUFUS_SERIAL_BAUD" envDefault:"9600"`
	LinkBackend string `env:"RUFUS_LINK_BACKEND" envDefault:"serial"`

	// Servo bus
	ServoBackend string `env:"RUFUS_SERVO_BACKEND" envDefault:"auto"`
	ServoPort    string `env:"RUFUS_SERVO_PORT" envDefault:"/dev/ttyACM0"`
	ServoBaud    int    `env:"RUFUS_SERVO_BAUD" envDefault:"1000000"`

	// Audio codec
	CodecBackend string `env:"RUFUS_CODEC_BACKEND" envDefault:"auto"`
	CodecDevice  string `env:"RUFUS_CODEC_DEVICE" envDefault:"/dev/vs1053"`
	CodecVolume  int    `env:"RUFUS_CODEC_VOLUME" envDefault:"40"`

	// Audio storage and streaming
	StorageDir   string `env:"RUFUS_STORAGE_DIR" envDefault:"/data/audio"`
	AudioFile    string `env:"RUFUS_AUDIO_FILE" envDefault:"rufus_tts.mp3"`
	ChunkSize    int    `env:"RUFUS_CHUNK_SIZE" envDefault:"512"`
	ProgressStep int    `env:"RUFUS_PROGRESS_STEP" envDefault:"10"`

	// Control loop and web surface
	TickInterval time.Duration `env:"RUFUS_TICK_INTERVAL" envDefault:"20ms"`
	HTTPAddr     string        `env:"RUFUS_HTTP_ADDR" envDefault:":8093"`

	// Optional YAML file overriding the channel/gesture tables.
	TablesFile string `env:"RUFUS_CONFIG_FILE"`

	Tables Tables `env:"-"`
}

// Tables are the hardware-shape definitions that can be overridden per
// robot build without recompiling: the actuator channels and the gesture
// step sequences.
type Tables struct {
	Channels []ChannelDef `yaml:"channels"`
	Gestures []GestureDef `yaml:"gestures"`
}

// ChannelDef describes one actuator channel: its bus servo ID and its
// angular geometry in degrees.
type ChannelDef struct {
	Name string `yaml:"name"`
	ID   int    `yaml:"id"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
	Rest int    `yaml:"rest"`
}

// StepDef is one gesture step: drive a channel to an angle, then hold.
type StepDef struct {
	Channel string `yaml:"channel"`
	Angle   int    `yaml:"angle"`
	HoldMs  int    `yaml:"hold_ms"`
}

// GestureDef is a named sequence of steps.
type GestureDef struct {
	Name  string    `yaml:"name"`
	Steps []StepDef `yaml:"steps"`
}

// Load builds the configuration from the environment, then applies the
// YAML tables file if one is configured.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if cfg.TablesFile != "" {
		data, err := os.ReadFile(cfg.TablesFile)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", cfg.TablesFile, err)
		}
		if err := yaml.Unmarshal(data, &cfg.Tables); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", cfg.TablesFile, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.LinkBackend {
	case "serial", "stdio":
	default:
		return fmt.Errorf("config: unknown link backend %q", c.LinkBackend)
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("config: serial baud must be positive, got %d", c.SerialBaud)
	}
	if c.ServoBaud <= 0 {
		return fmt.Errorf("config: servo baud must be positive, got %d", c.ServoBaud)
	}
	if c.CodecVolume < 0 || c.CodecVolume > 100 {
		return fmt.Errorf("config: codec volume must be in 0..100, got %d", c.CodecVolume)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ProgressStep < 1 || c.ProgressStep > 100 {
		return fmt.Errorf("config: progress step must be in 1..100, got %d", c.ProgressStep)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive, got %v", c.TickInterval)
	}
	for _, ch := range c.Tables.Channels {
		if ch.Name == "" {
			return fmt.Errorf("config: channel with empty name")
		}
		if ch.Min > ch.Max {
			return fmt.Errorf("config: channel %s: min %d > max %d", ch.Name, ch.Min, ch.Max)
		}
		if ch.Rest < ch.Min || ch.Rest > ch.Max {
			return fmt.Errorf("config: channel %s: rest %d outside [%d, %d]", ch.Name, ch.Rest, ch.Min, ch.Max)
		}
	}
	for _, g := range c.Tables.Gestures {
		if g.Name == "" {
			return fmt.Errorf("config: gesture with empty name")
		}
		if len(g.Steps) == 0 {
			return fmt.Errorf("config: gesture %s has no steps", g.Name)
		}
	}
	return nil
}

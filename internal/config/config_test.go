package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RUFUS_CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SerialBaud != 9600 {
		t.Errorf("SerialBaud: got %d, want 9600", cfg.SerialBaud)
	}
	if cfg.AudioFile != "rufus_tts.mp3" {
		t.Errorf("AudioFile: got %q, want rufus_tts.mp3", cfg.AudioFile)
	}
	if cfg.ChunkSize != 512 {
		t.Errorf("ChunkSize: got %d, want 512", cfg.ChunkSize)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval: got %v, want 20ms", cfg.TickInterval)
	}
	if len(cfg.Tables.Channels) != 0 {
		t.Errorf("Tables.Channels: got %d entries, want none without a tables file", len(cfg.Tables.Channels))
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RUFUS_SERIAL_PORT", "/dev/ttyUSB3")
	t.Setenv("RUFUS_CHUNK_SIZE", "32")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SerialPort != "/dev/ttyUSB3" {
		t.Errorf("SerialPort: got %q, want /dev/ttyUSB3", cfg.SerialPort)
	}
	if cfg.ChunkSize != 32 {
		t.Errorf("ChunkSize: got %d, want 32", cfg.ChunkSize)
	}
}

func TestLoad_TablesFile(t *testing.T) {
	yaml := `
channels:
  - name: head
    id: 7
    min: 40
    max: 120
    rest: 90
gestures:
  - name: bounce
    steps:
      - {channel: head, angle: 60, hold_ms: 200}
      - {channel: head, angle: 110, hold_ms: 200}
`
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write tables file: %v", err)
	}
	t.Setenv("RUFUS_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Tables.Channels) != 1 {
		t.Fatalf("Channels: got %d, want 1", len(cfg.Tables.Channels))
	}
	ch := cfg.Tables.Channels[0]
	if ch.Name != "head" || ch.ID != 7 || ch.Min != 40 || ch.Max != 120 || ch.Rest != 90 {
		t.Errorf("channel: got %+v", ch)
	}

	if len(cfg.Tables.Gestures) != 1 {
		t.Fatalf("Gestures: got %d, want 1", len(cfg.Tables.Gestures))
	}
	g := cfg.Tables.Gestures[0]
	if g.Name != "bounce" || len(g.Steps) != 2 {
		t.Errorf("gesture: got %+v", g)
	}
	if g.Steps[1].Angle != 110 || g.Steps[1].HoldMs != 200 {
		t.Errorf("step: got %+v", g.Steps[1])
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LinkBackend:  "serial",
			SerialBaud:   9600,
			ServoBaud:    1000000,
			ChunkSize:    512,
			ProgressStep: 10,
			TickInterval: 20 * time.Millisecond,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"stdio link", func(c *Config) { c.LinkBackend = "stdio" }, false},
		{"bad link backend", func(c *Config) { c.LinkBackend = "tcp" }, true},
		{"zero baud", func(c *Config) { c.SerialBaud = 0 }, true},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, true},
		{"progress step too big", func(c *Config) { c.ProgressStep = 101 }, true},
		{"codec volume out of range", func(c *Config) { c.CodecVolume = 150 }, true},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, true},
		{"channel min above max", func(c *Config) {
			c.Tables.Channels = []ChannelDef{{Name: "head", ID: 1, Min: 100, Max: 40, Rest: 90}}
		}, true},
		{"channel rest outside range", func(c *Config) {
			c.Tables.Channels = []ChannelDef{{Name: "head", ID: 1, Min: 40, Max: 120, Rest: 10}}
		}, true},
		{"gesture without steps", func(c *Config) {
			c.Tables.Gestures = []GestureDef{{Name: "empty"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

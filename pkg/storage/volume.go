// Package storage provides access to the audio storage volume.
//
// The daemon streams one fixed file from a mounted directory. Mount
// problems are detected at init and latch the volume unavailable; the
// flag is sticky until an explicit re-init, so playback fails fast
// instead of probing a dead mount on every command.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Volume is a read-only store of audio files.
type Volume interface {
	// Available reports whether the volume initialized successfully.
	Available() bool
	// Open opens a file for reading.
	Open(name string) (io.ReadCloser, error)
	// Stat returns the size of a file in bytes.
	Stat(name string) (int64, error)
}

// DirVolume is a Volume backed by a directory on the local filesystem.
type DirVolume struct {
	dir    string
	logger *slog.Logger

	mu        sync.RWMutex
	available bool
}

// NewDirVolume creates a volume over dir. Call Init before use.
func NewDirVolume(dir string, logger *slog.Logger) *DirVolume {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirVolume{dir: dir, logger: logger}
}

// Init probes the directory. Failure leaves the volume unavailable.
func (v *DirVolume) Init() error {
	return v.probe()
}

// Reinit probes the directory again, clearing the unavailable latch on
// success. This is the recovery path for a remounted volume.
func (v *DirVolume) Reinit() error {
	err := v.probe()
	if err == nil {
		v.logger.Info("storage volume reinitialized", "dir", v.dir)
	}
	return err
}

func (v *DirVolume) probe() error {
	info, err := os.Stat(v.dir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", v.dir)
	}

	v.mu.Lock()
	v.available = err == nil
	v.mu.Unlock()

	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	return nil
}

// Available reports whether the volume is usable.
func (v *DirVolume) Available() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.available
}

// Open opens a file on the volume.
func (v *DirVolume) Open(name string) (io.ReadCloser, error) {
	if !v.Available() {
		return nil, ErrUnavailable
	}
	f, err := os.Open(filepath.Join(v.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Stat returns the size of a file on the volume.
func (v *DirVolume) Stat(name string) (int64, error) {
	if !v.Available() {
		return 0, ErrUnavailable
	}
	info, err := os.Stat(filepath.Join(v.dir, name))
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", name, err)
	}
	return info.Size(), nil
}

var _ Volume = (*DirVolume)(nil)

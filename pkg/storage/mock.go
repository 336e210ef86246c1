package storage

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// MockVolume is an in-memory Volume for tests and bench runs.
type MockVolume struct {
	mu        sync.Mutex
	files     map[string][]byte
	available bool
	openErr   error

	opens atomic.Int64
}

// NewMockVolume creates an available, empty mock volume.
func NewMockVolume() *MockVolume {
	return &MockVolume{
		files:     make(map[string][]byte),
		available: true,
	}
}

// Put stores a file.
func (m *MockVolume) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
}

// SetAvailable flips the availability latch.
func (m *MockVolume) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = ok
}

// FailOpensWith makes subsequent opens fail. Pass nil to heal.
func (m *MockVolume) FailOpensWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// Available reports the availability latch.
func (m *MockVolume) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Open returns a reader over the stored bytes.
func (m *MockVolume) Open(name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return nil, ErrUnavailable
	}
	if m.openErr != nil {
		return nil, m.openErr
	}
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: file not found", name)
	}

	m.opens.Add(1)
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat returns the size of a stored file.
func (m *MockVolume) Stat(name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return 0, ErrUnavailable
	}
	data, ok := m.files[name]
	if !ok {
		return 0, fmt.Errorf("stat %s: file not found", name)
	}
	return int64(len(data)), nil
}

// Opens returns how many opens succeeded.
func (m *MockVolume) Opens() int64 {
	return m.opens.Load()
}

var _ Volume = (*MockVolume)(nil)

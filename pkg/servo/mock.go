package servo

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Write records one mock position write.
type Write struct {
	ID    int
	Angle int
}

// MockWriter is a position writer for tests and for running without
// hardware. It records every write and can inject failures.
type MockWriter struct {
	logger *slog.Logger

	mu     sync.Mutex
	writes []Write
	last   map[int]int
	err    error
	closed bool

	writeCount atomic.Int64
}

// NewMockWriter creates a mock position writer.
func NewMockWriter(logger *slog.Logger) *MockWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockWriter{
		logger: logger,
		last:   make(map[int]int),
	}
}

// WriteAngle records the write, or returns the injected error.
func (m *MockWriter) WriteAngle(ctx context.Context, id, angle int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.writes = append(m.writes, Write{ID: id, Angle: angle})
	m.last[id] = angle
	m.writeCount.Add(1)

	m.logger.Debug("mock servo write", "id", id, "angle", angle)
	return nil
}

// Name returns "mock".
func (m *MockWriter) Name() string {
	return "mock"
}

// Close marks the writer closed.
func (m *MockWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// FailWith makes subsequent writes return err. Pass nil to heal.
func (m *MockWriter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Writes returns a copy of all recorded writes.
func (m *MockWriter) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// Last returns the last angle written to the given servo ID.
func (m *MockWriter) Last(id int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	angle, ok := m.last[id]
	return angle, ok
}

// WriteCount returns the total number of successful writes.
func (m *MockWriter) WriteCount() int64 {
	return m.writeCount.Load()
}

var _ PositionWriter = (*MockWriter)(nil)

package codec

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// SinkStats is a snapshot of mock sink activity.
type SinkStats struct {
	ChunksWritten int64
	BytesWritten  int64
	Resets        int64
	Volume        int
}

// MockSink is a codec sink for testing. It buffers written bytes and
// tracks statistics.
type MockSink struct {
	logger *slog.Logger

	mu     sync.Mutex
	buf    bytes.Buffer
	volume int
	err    error
	closed bool

	chunksWritten atomic.Int64
	bytesWritten  atomic.Int64
	resets        atomic.Int64
}

// NewMockSink creates a mock codec sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSink{logger: logger, volume: cfg.Volume}
}

// Reset clears the buffer and counts the reset.
func (m *MockSink) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.err != nil {
		return m.err
	}

	m.buf.Reset()
	m.resets.Add(1)
	return nil
}

// Write buffers the chunk, or returns the injected error.
func (m *MockSink) Write(chunk []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.err != nil {
		return m.err
	}

	m.buf.Write(chunk)
	m.chunksWritten.Add(1)
	m.bytesWritten.Add(int64(len(chunk)))
	return nil
}

// SetVolume records the level.
func (m *MockSink) SetVolume(level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	m.volume = level
	return nil
}

// FailWith makes subsequent calls return err. Pass nil to heal.
func (m *MockSink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Bytes returns a copy of everything written since the last reset.
func (m *MockSink) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, m.buf.Len())
	copy(out, m.buf.Bytes())
	return out
}

// Name returns "mock".
func (m *MockSink) Name() string {
	return "mock"
}

// Close marks the sink closed.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Stats returns sink statistics.
func (m *MockSink) Stats() SinkStats {
	m.mu.Lock()
	volume := m.volume
	m.mu.Unlock()

	return SinkStats{
		ChunksWritten: m.chunksWritten.Load(),
		BytesWritten:  m.bytesWritten.Load(),
		Resets:        m.resets.Load(),
		Volume:        volume,
	}
}

var _ Sink = (*MockSink)(nil)

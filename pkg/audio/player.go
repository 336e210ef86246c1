package audio

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rufuslabs/go-rufus/pkg/codec"
	"github.com/rufuslabs/go-rufus/pkg/storage"
)

// Config holds playback configuration.
type Config struct {
	// File is the fixed file name streamed on every session.
	File string `yaml:"file" json:"file"`

	// ChunkSize is the number of bytes delivered per tick.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ProgressStep is the reporting granularity in percent.
	ProgressStep int `yaml:"progress_step" json:"progress_step"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		File:         "rufus_tts.mp3",
		ChunkSize:    512,
		ProgressStep: 10,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.File == "" {
		return fmt.Errorf("file is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ProgressStep < 1 || c.ProgressStep > 100 {
		return fmt.Errorf("progress_step must be in 1..100, got %d", c.ProgressStep)
	}
	return nil
}

// Player runs playback sessions against a storage volume and a codec
// sink. At most one session is live at a time.
type Player struct {
	store  storage.Volume
	sink   codec.Sink
	cfg    Config
	logger *slog.Logger

	// OnStart is called when a session reaches the streaming state.
	OnStart func(s Session)
	// OnProgress is called once per crossed progress boundary.
	OnProgress func(pct int)
	// OnDone is called on terminal transitions, completed or failed.
	OnDone func(s Session)

	mu      sync.RWMutex
	session Session
	r       io.ReadCloser
	buf     []byte
	lastPct int
}

// NewPlayer creates an idle player.
func NewPlayer(store storage.Volume, sink codec.Sink, cfg Config, logger *slog.Logger) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		store:  store,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		buf:    make([]byte, cfg.ChunkSize),
	}, nil
}

// Start begins a playback session. It fails fast, with no sink writes
// and no file opens, when the storage volume is unavailable; a missing
// or unopenable file fails after the probe. A zero-byte file completes
// immediately.
func (p *Player) Start(now time.Time) (Session, error) {
	p.mu.Lock()
	if p.session.State.Active() {
		p.mu.Unlock()
		return Session{}, ErrBusy
	}

	sess := Session{
		ID:      uuid.New(),
		File:    p.cfg.File,
		State:   StateOpening,
		Started: now,
	}
	p.session = sess
	p.lastPct = 0
	p.mu.Unlock()

	p.logger.Info("playback session starting", "session", sess.ID, "file", sess.File)

	if !p.store.Available() {
		return p.fail(storage.ErrUnavailable)
	}

	size, err := p.store.Stat(p.cfg.File)
	if err != nil {
		return p.fail(err)
	}

	r, err := p.store.Open(p.cfg.File)
	if err != nil {
		return p.fail(err)
	}

	if err := p.sink.Reset(); err != nil {
		r.Close()
		return p.fail(fmt.Errorf("sink reset: %w", err))
	}

	p.mu.Lock()
	p.session.State = StateStreaming
	p.session.Total = size
	p.r = r
	sess = p.session
	p.mu.Unlock()

	p.logger.Info("playback streaming", "session", sess.ID, "bytes", size)
	if p.OnStart != nil {
		p.OnStart(sess)
	}

	if size == 0 {
		sess, _ = p.complete()
		return sess, nil
	}
	return sess, nil
}

// Advance delivers at most one chunk to the sink. Between sessions it is
// a no-op. Call it once per control loop tick.
func (p *Player) Advance() {
	p.mu.RLock()
	streaming := p.session.State == StateStreaming
	r := p.r
	p.mu.RUnlock()

	if !streaming || r == nil {
		return
	}

	n, err := io.ReadFull(r, p.buf)
	switch {
	case err == io.EOF:
		p.complete()
		return
	case err == nil || err == io.ErrUnexpectedEOF:
		// Full chunk, or the final short one.
	default:
		p.fail(fmt.Errorf("read %s: %w", p.cfg.File, err))
		return
	}

	if werr := p.sink.Write(p.buf[:n]); werr != nil {
		p.fail(fmt.Errorf("sink write: %w", werr))
		return
	}

	p.mu.Lock()
	p.session.Sent += int64(n)
	pct := p.session.Progress()
	var crossed []int
	for b := p.lastPct + p.cfg.ProgressStep; b <= pct; b += p.cfg.ProgressStep {
		crossed = append(crossed, b)
		p.lastPct = b
	}
	done := p.session.Sent >= p.session.Total
	p.mu.Unlock()

	for _, b := range crossed {
		if p.OnProgress != nil {
			p.OnProgress(b)
		}
	}

	if done {
		p.complete()
	}
}

// Active reports whether a session is live.
func (p *Player) Active() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session.State.Active()
}

// Snapshot returns a copy of the current or last session.
func (p *Player) Snapshot() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// SessionID returns the live session ID, if any.
func (p *Player) SessionID() (uuid.UUID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.session.State.Active() {
		return uuid.UUID{}, false
	}
	return p.session.ID, true
}

// Abort tears down a live session without callbacks. Used on shutdown.
func (p *Player) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.session.State.Active() {
		return
	}
	if p.r != nil {
		p.r.Close()
		p.r = nil
	}
	p.session.State = StateIdle
	p.logger.Info("playback aborted", "session", p.session.ID)
}

func (p *Player) complete() (Session, error) {
	p.mu.Lock()
	if p.r != nil {
		p.r.Close()
		p.r = nil
	}
	p.session.State = StateCompleted
	reportFull := p.lastPct < 100
	p.lastPct = 100
	sess := p.session
	p.mu.Unlock()

	if reportFull && p.OnProgress != nil {
		p.OnProgress(100)
	}

	p.logger.Info("playback completed", "session", sess.ID, "bytes", sess.Sent)
	if p.OnDone != nil {
		p.OnDone(sess)
	}
	return sess, nil
}

func (p *Player) fail(cause error) (Session, error) {
	p.mu.Lock()
	if p.r != nil {
		p.r.Close()
		p.r = nil
	}
	p.session.State = StateFailed
	p.session.Cause = cause
	sess := p.session
	p.mu.Unlock()

	p.logger.Error("playback failed", "session", sess.ID, "error", cause)
	if p.OnDone != nil {
		p.OnDone(sess)
	}
	return sess, cause
}

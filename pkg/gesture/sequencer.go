package gesture

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Mover is the slice of the motion controller the sequencer needs.
type Mover interface {
	SetAngle(ctx context.Context, name string, angle int) (int, error)
	RestAll(ctx context.Context) error
}

// Sequencer plays one gesture at a time as an explicit state machine.
// Start applies the first step; each Advance applies at most one further
// step once the previous hold has elapsed. The final step is always a
// rest of all channels, whatever the sequence did.
type Sequencer struct {
	mover  Mover
	logger *slog.Logger

	// OnStep is called after each applied step with the applied angle.
	OnStep func(channel string, angle int)
	// OnDone is called after the trailing rest completes.
	OnDone func(name string)

	mu       sync.RWMutex
	running  bool
	current  Gesture
	idx      int
	deadline time.Time

	played     uint64
	stepErrors uint64
}

// NewSequencer creates an idle sequencer.
func NewSequencer(mover Mover, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{mover: mover, logger: logger}
}

// Start begins playing a gesture, applying its first step immediately.
// Returns ErrBusy while another gesture is running.
func (s *Sequencer) Start(ctx context.Context, g Gesture, now time.Time) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrBusy
	}
	if len(g.Steps) == 0 {
		s.mu.Unlock()
		return ErrEmptyGesture
	}
	s.running = true
	s.current = g
	s.idx = 0
	s.mu.Unlock()

	s.logger.Info("gesture started", "name", g.Name, "steps", len(g.Steps), "duration", g.Duration())
	s.applyStep(ctx, g.Steps[0], now)
	return nil
}

// Advance moves the state machine forward. At most one step is applied
// per call; between deadlines it is a no-op. Call it once per control
// loop tick.
func (s *Sequencer) Advance(ctx context.Context, now time.Time) {
	s.mu.RLock()
	running := s.running
	deadline := s.deadline
	idx := s.idx
	g := s.current
	s.mu.RUnlock()

	if !running || now.Before(deadline) {
		return
	}

	next := idx + 1
	if next < len(g.Steps) {
		s.mu.Lock()
		s.idx = next
		s.mu.Unlock()
		s.applyStep(ctx, g.Steps[next], now)
		return
	}

	s.finish(ctx, g.Name)
}

// Abort stops the running gesture and rests all channels. Used on
// shutdown; completion callbacks do not fire.
func (s *Sequencer) Abort(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	name := s.current.Name
	s.running = false
	s.mu.Unlock()

	s.logger.Info("gesture aborted", "name", name)
	if err := s.mover.RestAll(ctx); err != nil {
		s.logger.Error("rest after abort failed", "error", err)
	}
}

// Active returns the running gesture name, if any.
func (s *Sequencer) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return "", false
	}
	return s.current.Name, true
}

// Played returns how many gestures have run to completion.
func (s *Sequencer) Played() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.played
}

// StepErrors returns how many steps failed to reach the bus.
func (s *Sequencer) StepErrors() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stepErrors
}

func (s *Sequencer) applyStep(ctx context.Context, step Step, now time.Time) {
	applied, err := s.mover.SetAngle(ctx, step.Channel, step.Angle)
	if err != nil {
		s.mu.Lock()
		s.stepErrors++
		s.mu.Unlock()
		s.logger.Error("gesture step failed", "channel", step.Channel, "angle", step.Angle, "error", err)
	}

	s.mu.Lock()
	s.deadline = now.Add(step.Hold)
	s.mu.Unlock()

	if s.OnStep != nil {
		s.OnStep(step.Channel, applied)
	}
}

func (s *Sequencer) finish(ctx context.Context, name string) {
	if err := s.mover.RestAll(ctx); err != nil {
		s.logger.Error("rest after gesture failed", "name", name, "error", err)
	}

	s.mu.Lock()
	s.running = false
	s.played++
	s.mu.Unlock()

	s.logger.Info("gesture completed", "name", name)
	if s.OnDone != nil {
		s.OnDone(name)
	}
}

package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rufuslabs/go-rufus/pkg/audio"
	"github.com/rufuslabs/go-rufus/pkg/gesture"
	"github.com/rufuslabs/go-rufus/pkg/motion"
)

// Emitter receives diagnostic lines bound for the operator link.
type Emitter func(line string)

type activityKind int

const (
	actGesture activityKind = iota
	actPlay
)

// activity is one unit of work holding the actuators: a gesture
// sequence or an audio playback session.
type activity struct {
	kind    activityKind
	gesture gesture.Gesture
}

func (a activity) label() string {
	if a.kind == actPlay {
		return "play"
	}
	return a.gesture.Name
}

type submitOutcome int

const (
	outcomeStarted submitOutcome = iota
	outcomeQueued
	outcomeRejected
)

// Interpreter dispatches parsed commands to the motion controller, the
// gesture sequencer and the audio player, and emits the diagnostic
// lines the operator sees.
//
// One activity runs at a time and one more may wait in the pending
// slot. A directive that arrives while the slot is occupied is
// rejected with a busy diagnostic. Direct channel moves are never
// queued; they are rejected while any activity runs.
//
// HandleLine and Tick must be called from a single goroutine, the
// control loop. The accessors are safe from any goroutine.
type Interpreter struct {
	mover    gesture.Mover
	seq      *gesture.Sequencer
	gestures *gesture.Registry
	player   *audio.Player
	emit     Emitter
	logger   *slog.Logger

	mu      sync.Mutex
	pending *activity
	handled uint64
	unknown uint64
}

// NewInterpreter wires the sequencer and player callbacks to the
// emitter and returns a ready interpreter.
func NewInterpreter(mover gesture.Mover, seq *gesture.Sequencer, gestures *gesture.Registry, player *audio.Player, emit Emitter, logger *slog.Logger) *Interpreter {
	if emit == nil {
		emit = func(string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	in := &Interpreter{
		mover:    mover,
		seq:      seq,
		gestures: gestures,
		player:   player,
		emit:     emit,
		logger:   logger,
	}

	seq.OnStep = func(channel string, angle int) {
		in.emit(fmt.Sprintf("%s %d", channel, angle))
	}
	seq.OnDone = func(string) {
		in.emit("rest")
	}
	player.OnStart = func(s audio.Session) {
		in.emit(fmt.Sprintf("playing %s (%d bytes)", s.File, s.Total))
	}
	player.OnProgress = func(pct int) {
		in.emit(fmt.Sprintf("progress %d%%", pct))
	}
	player.OnDone = func(s audio.Session) {
		if s.State == audio.StateCompleted {
			in.emit("done")
			return
		}
		in.emit("error: " + s.Cause.Error())
	}
	return in
}

// HandleLine processes one link line. Blank lines are ignored without
// any diagnostic; unmatched lines produce exactly one unrecognized
// diagnostic. Every accepted command is echoed before its effect.
func (in *Interpreter) HandleLine(ctx context.Context, now time.Time, line string) {
	cmd, ok := Parse(line)
	if !ok {
		return
	}
	if cmd.Verb == VerbUnknown {
		in.mu.Lock()
		in.unknown++
		in.mu.Unlock()
		in.logger.Warn("unrecognized command", "line", cmd.Raw)
		in.emit("unrecognized command: " + cmd.Raw)
		return
	}

	in.mu.Lock()
	in.handled++
	in.mu.Unlock()
	in.logger.Debug("command", "verb", cmd.Verb.String(), "line", cmd.Raw)
	in.emit("> " + cmd.Raw)

	switch cmd.Verb {
	case VerbMove:
		in.handleMove(ctx, cmd)
	case VerbPlay:
		in.report(in.submit(ctx, now, activity{kind: actPlay}))
	default:
		name := gestureFor(cmd.Verb)
		g, found := in.gestures.Lookup(name)
		if !found {
			in.logger.Error("gesture not registered", "name", name)
			in.emit("error: unknown gesture " + name)
			return
		}
		in.report(in.submit(ctx, now, activity{kind: actGesture, gesture: g}))
	}
}

// Tick advances the running activity and then promotes the pending one
// once the actuators are free. Call it once per control loop tick.
func (in *Interpreter) Tick(ctx context.Context, now time.Time) {
	in.seq.Advance(ctx, now)
	in.player.Advance()

	if in.activityRunning() {
		return
	}
	in.mu.Lock()
	act := in.pending
	in.pending = nil
	in.mu.Unlock()
	if act == nil {
		return
	}
	in.logger.Info("pending activity starting", "activity", act.label())
	if err := in.start(ctx, now, *act); err != nil {
		in.logger.Error("pending activity failed to start", "activity", act.label(), "error", err)
	}
}

// Trigger submits a gesture by name through the same policy as the
// link verbs. The queued return reports whether it went to the pending
// slot rather than starting at once.
func (in *Interpreter) Trigger(ctx context.Context, now time.Time, name string) (queued bool, err error) {
	g, found := in.gestures.Lookup(name)
	if !found {
		return false, gesture.ErrNotFound
	}
	outcome, err := in.submitChecked(ctx, now, activity{kind: actGesture, gesture: g})
	return outcome == outcomeQueued, err
}

// TriggerPlay submits an audio playback through the busy policy.
func (in *Interpreter) TriggerPlay(ctx context.Context, now time.Time) (queued bool, err error) {
	outcome, err := in.submitChecked(ctx, now, activity{kind: actPlay})
	return outcome == outcomeQueued, err
}

// Move applies a direct single channel move. Moves are rejected with
// ErrBusy while any activity runs; the sequence owns the actuators.
func (in *Interpreter) Move(ctx context.Context, channel string, angle int) (int, error) {
	if in.activityRunning() {
		return 0, ErrBusy
	}
	return in.mover.SetAngle(ctx, channel, angle)
}

// Abort stops any running activity and clears the pending slot. Used
// on shutdown before the final rest.
func (in *Interpreter) Abort(ctx context.Context) {
	in.mu.Lock()
	in.pending = nil
	in.mu.Unlock()
	in.seq.Abort(ctx)
	in.player.Abort()
}

// Activity reports the running activity for status payloads. The name
// is a gesture name or "play"; ok is false when idle.
func (in *Interpreter) Activity() (name string, ok bool) {
	if name, ok := in.seq.Active(); ok {
		return name, true
	}
	if in.player.Active() {
		return "play", true
	}
	return "", false
}

// Pending reports the queued activity, if any.
func (in *Interpreter) Pending() (name string, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.pending == nil {
		return "", false
	}
	return in.pending.label(), true
}

// Counters returns how many lines carried a known command and how many
// were unrecognized.
func (in *Interpreter) Counters() (handled, unknown uint64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.handled, in.unknown
}

func (in *Interpreter) handleMove(ctx context.Context, cmd Command) {
	applied, err := in.Move(ctx, cmd.Channel, cmd.Angle)
	switch {
	case errors.Is(err, ErrBusy):
		in.emit("busy")
	case errors.Is(err, motion.ErrUnknownChannel):
		in.emit("error: " + err.Error())
	default:
		// Bus write errors keep the commanded angle; they surface in
		// logs and status, not on the link.
		in.emit(fmt.Sprintf("%s %d", cmd.Channel, applied))
	}
}

func (in *Interpreter) submit(ctx context.Context, now time.Time, act activity) submitOutcome {
	outcome, _ := in.submitChecked(ctx, now, act)
	return outcome
}

func (in *Interpreter) submitChecked(ctx context.Context, now time.Time, act activity) (submitOutcome, error) {
	if !in.activityRunning() {
		return outcomeStarted, in.start(ctx, now, act)
	}
	in.mu.Lock()
	if in.pending != nil {
		in.mu.Unlock()
		return outcomeRejected, ErrBusy
	}
	in.pending = &act
	in.mu.Unlock()
	in.logger.Info("activity queued", "activity", act.label())
	return outcomeQueued, nil
}

func (in *Interpreter) report(outcome submitOutcome) {
	switch outcome {
	case outcomeQueued:
		in.emit("queued")
	case outcomeRejected:
		in.emit("busy")
	}
}

func (in *Interpreter) start(ctx context.Context, now time.Time, act activity) error {
	if act.kind == actPlay {
		if _, err := in.player.Start(now); err != nil {
			// Terminal start failures already emitted their error
			// diagnostic through OnDone.
			return err
		}
		return nil
	}
	return in.seq.Start(ctx, act.gesture, now)
}

func (in *Interpreter) activityRunning() bool {
	if _, ok := in.seq.Active(); ok {
		return true
	}
	return in.player.Active()
}

func gestureFor(v Verb) string {
	switch v {
	case VerbYes:
		return gesture.Affirmative
	case VerbNo:
		return gesture.Negative
	default:
		return gesture.Settle
	}
}

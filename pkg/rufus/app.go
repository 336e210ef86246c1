// Package rufus wires the firmware together: the command link, the
// actuator channels, gesture playback, audio streaming and the
// observation surfaces, all driven by one control loop.
package rufus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rufuslabs/go-rufus/internal/config"
	"github.com/rufuslabs/go-rufus/pkg/audio"
	"github.com/rufuslabs/go-rufus/pkg/codec"
	"github.com/rufuslabs/go-rufus/pkg/command"
	"github.com/rufuslabs/go-rufus/pkg/gesture"
	"github.com/rufuslabs/go-rufus/pkg/hub"
	"github.com/rufuslabs/go-rufus/pkg/link"
	"github.com/rufuslabs/go-rufus/pkg/motion"
	"github.com/rufuslabs/go-rufus/pkg/servo"
	"github.com/rufuslabs/go-rufus/pkg/storage"
)

// task is one unit of work executed on the control loop goroutine.
type task func(ctx context.Context, now time.Time)

// App owns every subsystem and runs the control loop. All actuator and
// playback state changes happen on the loop goroutine; other goroutines
// reach it through Do.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	link     *link.Link
	writer   servo.PositionWriter
	motion   *motion.Controller
	registry *gesture.Registry
	seq      *gesture.Sequencer
	store    *storage.DirVolume
	sink     codec.Sink
	player   *audio.Player
	interp   *command.Interpreter
	diag     *hub.Hub

	submit  chan task
	started time.Time

	mu    sync.RWMutex
	ready bool
}

// New validates the configuration and creates an app. Call Init to
// open the hardware, then Run.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		diag:    hub.New("diag", logger),
		submit:  make(chan task),
		started: time.Now(),
	}, nil
}

// UseLink sets the command transport before Init. When none is set,
// Init opens the configured backend. Embedders and tests inject pipes
// this way.
func (a *App) UseLink(l *link.Link) {
	a.link = l
}

// Init opens the link and the hardware, rests the actuators and emits
// the startup diagnostics. The last line emitted is always READY; a
// degraded storage volume or codec never blocks it.
func (a *App) Init(ctx context.Context) error {
	if a.link == nil {
		l, err := link.Open(link.Config{
			Backend: link.Backend(a.cfg.LinkBackend),
			Port:    a.cfg.SerialPort,
			Baud:    a.cfg.SerialBaud,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("open link: %w", err)
		}
		a.link = l
	}

	channels := buildChannels(a.cfg.Tables.Channels)
	ids := make([]int, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
	}
	writer, err := servo.NewWriter(ctx, servo.Config{
		Backend:  servo.Backend(a.cfg.ServoBackend),
		Port:     a.cfg.ServoPort,
		BaudRate: a.cfg.ServoBaud,
		IDs:      ids,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("open servo output: %w", err)
	}
	a.writer = writer
	a.motion = motion.NewController(channels, writer, a.logger)

	a.registry = buildGestures(a.cfg.Tables.Gestures)
	a.seq = gesture.NewSequencer(a.motion, a.logger)

	a.store = storage.NewDirVolume(a.cfg.StorageDir, a.logger)

	sink, err := codec.New(codec.Config{
		Backend: codec.Backend(a.cfg.CodecBackend),
		Device:  a.cfg.CodecDevice,
		Volume:  a.cfg.CodecVolume,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("open codec: %w", err)
	}
	a.sink = sink

	player, err := audio.NewPlayer(a.store, sink, audio.Config{
		File:         a.cfg.AudioFile,
		ChunkSize:    a.cfg.ChunkSize,
		ProgressStep: a.cfg.ProgressStep,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("audio player: %w", err)
	}
	a.player = player

	a.interp = command.NewInterpreter(a.motion, a.seq, a.registry, player, a.emit, a.logger)

	a.announce(ctx, channels)
	return nil
}

// statusEvery is the broadcast interval for status frames on the
// diagnostic stream.
const statusEvery = time.Second

// Run drives the control loop until the context is cancelled or the
// link closes.
func (a *App) Run(ctx context.Context) error {
	go a.diag.Run(ctx)

	lines := a.link.Lines(ctx)
	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()
	statusTicker := time.NewTicker(statusEvery)
	defer statusTicker.Stop()

	a.logger.Info("control loop running",
		"link", a.link.Name(),
		"tick", a.cfg.TickInterval,
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				a.logger.Warn("command link closed")
				return nil
			}
			a.interp.HandleLine(ctx, time.Now(), line)
		case t := <-a.submit:
			t(ctx, time.Now())
		case <-ticker.C:
			a.interp.Tick(ctx, time.Now())
		case <-statusTicker.C:
			a.broadcastStatus()
		}
	}
}

// broadcastStatus pushes a status frame to connected observers. With
// no observers the snapshot is skipped entirely.
func (a *App) broadcastStatus() {
	if a.diag.ClientCount() == 0 {
		return
	}
	data, err := json.Marshal(a.Status())
	if err != nil {
		return
	}
	a.diag.BroadcastEvent(hub.StatusEvent(data, time.Now()))
}

// Shutdown aborts any running activity, rests the actuators and closes
// the hardware. Call it after Run returns.
func (a *App) Shutdown() {
	a.setReady(false)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if a.interp != nil {
		a.interp.Abort(ctx)
	}
	if a.motion != nil {
		if err := a.motion.RestAll(ctx); err != nil {
			a.logger.Warn("shutdown rest failed", "error", err)
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("codec close failed", "error", err)
		}
	}
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Warn("servo close failed", "error", err)
		}
	}
	if a.link != nil {
		if err := a.link.Close(); err != nil {
			a.logger.Warn("link close failed", "error", err)
		}
	}
	a.logger.Info("rufusd stopped")
}

// Do runs fn on the control loop goroutine and waits for it. Results
// captured by fn are only valid when Do returns nil.
func (a *App) Do(ctx context.Context, fn func(ctx context.Context, now time.Time)) error {
	done := make(chan struct{})
	wrapped := func(c context.Context, now time.Time) {
		defer close(done)
		fn(c, now)
	}
	select {
	case a.submit <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitLine injects one protocol line as if it arrived on the link.
func (a *App) SubmitLine(ctx context.Context, line string) error {
	return a.Do(ctx, func(c context.Context, now time.Time) {
		a.interp.HandleLine(c, now, line)
	})
}

// TriggerGesture starts or queues a gesture by name.
func (a *App) TriggerGesture(ctx context.Context, name string) (queued bool, err error) {
	derr := a.Do(ctx, func(c context.Context, now time.Time) {
		queued, err = a.interp.Trigger(c, now, name)
	})
	if derr != nil {
		return false, derr
	}
	return queued, err
}

// TriggerPlay starts or queues playback of the audio file.
func (a *App) TriggerPlay(ctx context.Context) (queued bool, err error) {
	derr := a.Do(ctx, func(c context.Context, now time.Time) {
		queued, err = a.interp.TriggerPlay(c, now)
	})
	if derr != nil {
		return false, derr
	}
	return queued, err
}

// MoveChannel applies a direct channel move, returning the applied
// angle after clamping.
func (a *App) MoveChannel(ctx context.Context, channel string, angle int) (applied int, err error) {
	derr := a.Do(ctx, func(c context.Context, now time.Time) {
		applied, err = a.interp.Move(c, channel, angle)
	})
	if derr != nil {
		return 0, derr
	}
	return applied, err
}

// SetVolume adjusts the codec output level.
func (a *App) SetVolume(level int) error {
	return a.sink.SetVolume(level)
}

// ReinitStorage probes the storage volume again, clearing the
// unavailable latch on success.
func (a *App) ReinitStorage() error {
	return a.store.Reinit()
}

// Gestures lists the registered gesture names.
func (a *App) Gestures() []string {
	return a.registry.Names()
}

// DiagHub exposes the broadcast hub for websocket observers.
func (a *App) DiagHub() *hub.Hub {
	return a.diag
}

// Ready reports whether startup finished and READY went out.
func (a *App) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ready
}

// emit writes one diagnostic line to the link and mirrors it to the
// websocket stream.
func (a *App) emit(line string) {
	if err := a.link.WriteLine(line); err != nil {
		a.logger.Error("link write failed", "error", err)
	}
	a.diag.BroadcastEvent(hub.DiagEvent(line, time.Now()))
}

// announce rests the actuators, probes storage and the codec, and
// emits the startup diagnostics. The supervisor on the other end of
// the link waits for the READY line before accepting requests.
func (a *App) announce(ctx context.Context, channels []servo.Channel) {
	if err := a.motion.RestAll(ctx); err != nil {
		a.logger.Warn("startup rest failed", "error", err)
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}
	a.emit("channels " + strings.Join(names, " "))
	a.emit("servo " + a.writer.Name())

	if err := a.store.Init(); err != nil {
		a.logger.Warn("storage unavailable at startup", "dir", a.cfg.StorageDir, "error", err)
		a.emit("storage degraded: " + err.Error())
	} else if size, err := a.store.Stat(a.cfg.AudioFile); err != nil {
		a.logger.Warn("audio file missing at startup", "file", a.cfg.AudioFile, "error", err)
		a.emit("audio file missing: " + a.cfg.AudioFile)
	} else {
		a.emit(fmt.Sprintf("storage ok %s %d bytes", a.cfg.AudioFile, size))
	}

	if err := a.sink.Reset(); err != nil {
		a.logger.Warn("codec unavailable at startup", "error", err)
		a.emit("codec degraded: " + err.Error())
	} else if err := a.sink.SetVolume(a.cfg.CodecVolume); err != nil {
		a.logger.Warn("codec volume failed at startup", "error", err)
		a.emit("codec degraded: " + err.Error())
	} else {
		a.emit(fmt.Sprintf("codec %s volume %d", a.sink.Name(), a.cfg.CodecVolume))
	}

	a.emit("READY")
	a.setReady(true)
	a.logger.Info("rufusd ready",
		"servo", a.writer.Name(),
		"codec", a.sink.Name(),
		"storage", a.store.Available(),
	)
}

func (a *App) setReady(ready bool) {
	a.mu.Lock()
	a.ready = ready
	a.mu.Unlock()
}

// buildChannels maps the configured channel table to servo channels,
// falling back to the reference geometry.
func buildChannels(defs []config.ChannelDef) []servo.Channel {
	if len(defs) == 0 {
		return servo.DefaultChannels()
	}
	out := make([]servo.Channel, len(defs))
	for i, d := range defs {
		out[i] = servo.Channel{Name: d.Name, ID: d.ID, Min: d.Min, Max: d.Max, Rest: d.Rest}
	}
	return out
}

// buildGestures layers the configured gesture table over the builtins.
// A configured gesture with a builtin's name replaces it.
func buildGestures(defs []config.GestureDef) *gesture.Registry {
	reg := gesture.NewRegistry(gesture.Builtin()...)
	for _, d := range defs {
		steps := make([]gesture.Step, len(d.Steps))
		for i, s := range d.Steps {
			steps[i] = gesture.Step{
				Channel: s.Channel,
				Angle:   s.Angle,
				Hold:    time.Duration(s.HoldMs) * time.Millisecond,
			}
		}
		reg.Add(gesture.Gesture{Name: d.Name, Steps: steps})
	}
	return reg
}

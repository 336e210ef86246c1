package rufus

import (
	"time"

	"github.com/google/uuid"
)

// Status is the device snapshot served over the HTTP surface and the
// websocket stream.
type Status struct {
	Ready        bool            `json:"ready"`
	UptimeSec    int64           `json:"uptime_sec"`
	Link         string          `json:"link"`
	ServoBackend string          `json:"servo_backend"`
	Codec        string          `json:"codec"`
	Storage      StorageStatus   `json:"storage"`
	Channels     []ChannelStatus `json:"channels"`
	AtRest       bool            `json:"at_rest"`
	Activity     string          `json:"activity,omitempty"`
	Pending      string          `json:"pending,omitempty"`
	Audio        AudioStatus     `json:"audio"`
	Commands     CommandStats    `json:"commands"`
	Gestures     []string        `json:"gestures"`
	WSClients    int             `json:"ws_clients"`
}

// ChannelStatus is one actuator channel and its commanded angle.
type ChannelStatus struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Angle int    `json:"angle"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Rest  int    `json:"rest"`
}

// StorageStatus reports the audio volume health.
type StorageStatus struct {
	Available bool   `json:"available"`
	Dir       string `json:"dir"`
}

// AudioStatus reports the playback session state.
type AudioStatus struct {
	State    string `json:"state"`
	File     string `json:"file,omitempty"`
	Progress int    `json:"progress"`
	Session  string `json:"session,omitempty"`
}

// CommandStats counts link traffic since startup.
type CommandStats struct {
	Handled uint64 `json:"handled"`
	Unknown uint64 `json:"unknown"`
}

// Status assembles a snapshot. Safe from any goroutine.
func (a *App) Status() Status {
	s := Status{
		Ready:     a.Ready(),
		UptimeSec: int64(time.Since(a.started).Seconds()),
		Storage:   StorageStatus{Dir: a.cfg.StorageDir},
		WSClients: a.diag.ClientCount(),
	}
	if a.interp == nil {
		// Before Init only the shell exists.
		return s
	}

	s.Link = a.link.Name()
	s.ServoBackend = a.writer.Name()
	s.Codec = a.sink.Name()
	s.Storage.Available = a.store.Available()
	s.AtRest = a.motion.AtRest()
	s.Gestures = a.registry.Names()

	angles := a.motion.Angles()
	for _, ch := range a.motion.Channels() {
		s.Channels = append(s.Channels, ChannelStatus{
			Name:  ch.Name,
			ID:    ch.ID,
			Angle: angles[ch.Name],
			Min:   ch.Min,
			Max:   ch.Max,
			Rest:  ch.Rest,
		})
	}

	if name, ok := a.interp.Activity(); ok {
		s.Activity = name
	}
	if name, ok := a.interp.Pending(); ok {
		s.Pending = name
	}
	s.Commands.Handled, s.Commands.Unknown = a.interp.Counters()

	sess := a.player.Snapshot()
	s.Audio = AudioStatus{
		State:    sess.State.String(),
		Progress: sess.Progress(),
	}
	if sess.ID != uuid.Nil {
		s.Audio.File = sess.File
		s.Audio.Session = sess.ID.String()
	}
	return s
}

package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rufuslabs/go-rufus/pkg/codec"
	"github.com/rufuslabs/go-rufus/pkg/storage"
)

func newTestPlayer(t *testing.T, data []byte, chunkSize int) (*Player, *storage.MockVolume, *codec.MockSink) {
	t.Helper()

	store := storage.NewMockVolume()
	if data != nil {
		store.Put("rufus_tts.mp3", data)
	}
	sink := codec.NewMockSink(codec.DefaultConfig(), nil)

	cfg := DefaultConfig()
	cfg.ChunkSize = chunkSize

	p, err := NewPlayer(store, sink, cfg, nil)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return p, store, sink
}

// drain advances until the session leaves the streaming state.
func drain(t *testing.T, p *Player) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if !p.Active() {
			return
		}
		p.Advance()
	}
	t.Fatal("player did not finish")
}

func TestPlayer_StreamsWholeFile(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 1000)
	p, _, sink := newTestPlayer(t, data, 256)

	sess, err := p.Start(time.Now())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.State != StateStreaming {
		t.Fatalf("state after Start: got %v, want streaming", sess.State)
	}
	if sess.Total != 1000 {
		t.Errorf("Total: got %d, want 1000", sess.Total)
	}

	drain(t, p)

	final := p.Snapshot()
	if final.State != StateCompleted {
		t.Errorf("final state: got %v, want completed", final.State)
	}
	if final.Sent != 1000 {
		t.Errorf("Sent: got %d, want 1000", final.Sent)
	}

	stats := sink.Stats()
	if stats.BytesWritten != 1000 {
		t.Errorf("sink bytes: got %d, want 1000", stats.BytesWritten)
	}
	// ceil(1000/256) = 4 writes, the last one short
	if stats.ChunksWritten != 4 {
		t.Errorf("sink chunks: got %d, want 4", stats.ChunksWritten)
	}
	if stats.Resets != 1 {
		t.Errorf("sink resets: got %d, want 1", stats.Resets)
	}
	if !bytes.Equal(sink.Bytes(), data) {
		t.Error("sink received different bytes than the file")
	}
}

func TestPlayer_OneChunkPerAdvance(t *testing.T) {
	p, _, sink := newTestPlayer(t, make([]byte, 300), 100)

	if _, err := p.Start(time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Advance()
	if got := sink.Stats().ChunksWritten; got != 1 {
		t.Errorf("after one advance: got %d chunks, want 1", got)
	}
	p.Advance()
	if got := sink.Stats().ChunksWritten; got != 2 {
		t.Errorf("after two advances: got %d chunks, want 2", got)
	}
}

func TestPlayer_ProgressMonotoneAndComplete(t *testing.T) {
	p, _, _ := newTestPlayer(t, make([]byte, 1000), 100)

	var reports []int
	p.OnProgress = func(pct int) { reports = append(reports, pct) }

	if _, err := p.Start(time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drain(t, p)

	if len(reports) == 0 {
		t.Fatal("no progress reports")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] <= reports[i-1] {
			t.Errorf("progress not increasing: %v", reports)
			break
		}
	}

	hundreds := 0
	for _, pct := range reports {
		if pct == 100 {
			hundreds++
		}
	}
	if hundreds != 1 {
		t.Errorf("100%% reported %d times, want exactly once: %v", hundreds, reports)
	}
	if reports[len(reports)-1] != 100 {
		t.Errorf("final report: got %d, want 100", reports[len(reports)-1])
	}

	// 10 chunks of 10% each: every boundary crossed once.
	want := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if len(reports) != len(want) {
		t.Errorf("reports: got %v, want %v", reports, want)
	}
}

func TestPlayer_ProgressStepNotDividing100(t *testing.T) {
	p, _, _ := newTestPlayer(t, make([]byte, 100), 10)
	p.cfg.ProgressStep = 30

	var reports []int
	p.OnProgress = func(pct int) { reports = append(reports, pct) }

	if _, err := p.Start(time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drain(t, p)

	want := []int{30, 60, 90, 100}
	if len(reports) != len(want) {
		t.Fatalf("reports: got %v, want %v", reports, want)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Errorf("reports[%d]: got %d, want %d", i, reports[i], want[i])
		}
	}
}

func TestPlayer_StorageUnavailableFailsFast(t *testing.T) {
	p, store, sink := newTestPlayer(t, []byte("audio"), 4)
	store.SetAvailable(false)

	var done []Session
	p.OnDone = func(s Session) { done = append(done, s) }

	sess, err := p.Start(time.Now())
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("Start: got %v, want ErrUnavailable", err)
	}
	if sess.State != StateFailed {
		t.Errorf("state: got %v, want failed", sess.State)
	}
	if !errors.Is(sess.Cause, storage.ErrUnavailable) {
		t.Errorf("cause: got %v", sess.Cause)
	}

	if store.Opens() != 0 {
		t.Errorf("opens: got %d, want 0", store.Opens())
	}
	if got := sink.Stats().BytesWritten; got != 0 {
		t.Errorf("sink bytes: got %d, want 0", got)
	}
	if len(done) != 1 || done[0].State != StateFailed {
		t.Errorf("OnDone: got %+v", done)
	}

	// A failed session leaves the player ready for the next PLAY.
	if p.Active() {
		t.Error("player still active after failure")
	}
}

func TestPlayer_MissingFile(t *testing.T) {
	p, _, sink := newTestPlayer(t, nil, 4)

	sess, err := p.Start(time.Now())
	if err == nil {
		t.Fatal("Start with missing file: want error")
	}
	if sess.State != StateFailed {
		t.Errorf("state: got %v, want failed", sess.State)
	}
	if got := sink.Stats().BytesWritten; got != 0 {
		t.Errorf("sink bytes: got %d, want 0", got)
	}
}

func TestPlayer_SinkWriteFailure(t *testing.T) {
	p, _, sink := newTestPlayer(t, make([]byte, 100), 10)
	sinkErr := errors.New("codec fault")

	if _, err := p.Start(time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Advance()
	sink.FailWith(sinkErr)
	p.Advance()

	final := p.Snapshot()
	if final.State != StateFailed {
		t.Errorf("state: got %v, want failed", final.State)
	}
	if !errors.Is(final.Cause, sinkErr) {
		t.Errorf("cause: got %v", final.Cause)
	}
	if p.Active() {
		t.Error("player still active after sink failure")
	}
}

func TestPlayer_ZeroByteFile(t *testing.T) {
	p, _, sink := newTestPlayer(t, []byte{}, 4)

	var reports []int
	p.OnProgress = func(pct int) { reports = append(reports, pct) }

	sess, err := p.Start(time.Now())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.State != StateCompleted {
		t.Errorf("state: got %v, want completed", sess.State)
	}
	if len(reports) != 1 || reports[0] != 100 {
		t.Errorf("reports: got %v, want [100]", reports)
	}
	if got := sink.Stats().BytesWritten; got != 0 {
		t.Errorf("sink bytes: got %d, want 0", got)
	}
}

func TestPlayer_BusyWhileStreaming(t *testing.T) {
	p, _, _ := newTestPlayer(t, make([]byte, 100), 10)

	if _, err := p.Start(time.Now()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := p.Start(time.Now()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start: got %v, want ErrBusy", err)
	}

	drain(t, p)

	// After completion a new session may start.
	if _, err := p.Start(time.Now()); err != nil {
		t.Errorf("Start after completion: %v", err)
	}
}

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rufuslabs/go-rufus/internal/config"
	"github.com/rufuslabs/go-rufus/pkg/link"
	"github.com/rufuslabs/go-rufus/pkg/rufus"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rufus_tts.mp3"), []byte("0123456789ab"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return &config.Config{
		SerialPort:   "/dev/null",
		SerialBaud:   9600,
		LinkBackend:  "stdio",
		ServoBackend: "mock",
		ServoPort:    "/dev/null",
		ServoBaud:    1_000_000,
		CodecBackend: "mock",
		CodecDevice:  "/dev/null",
		CodecVolume:  40,
		StorageDir:   dir,
		AudioFile:    "rufus_tts.mp3",
		ChunkSize:    4,
		ProgressStep: 50,
		TickInterval: 5 * time.Millisecond,
		HTTPAddr:     ":0",
	}
}

// newTestServer runs a full device over an in-memory link and returns
// the router wired to it.
func newTestServer(t *testing.T) (*Server, *rufus.App) {
	t.Helper()
	a, err := rufus.New(testConfig(t), quietLogger())
	if err != nil {
		t.Fatalf("rufus.New: %v", err)
	}
	pr, pw := io.Pipe()
	a.UseLink(link.New(pr, io.Discard, "test", quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	t.Cleanup(func() {
		pw.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("control loop did not stop")
		}
	})

	return NewServer(a, ":0", quietLogger()), a
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "GET", "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK    bool `json:"ok"`
		Ready bool `json:"ready"`
	}
	decode(t, resp, &body)
	if !body.OK || !body.Ready {
		t.Errorf("health: got %+v, want ok and ready", body)
	}
}

func TestServer_Status(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "GET", "/api/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var st rufus.Status
	decode(t, resp, &st)
	if !st.Ready {
		t.Error("device not ready")
	}
	if st.ServoBackend != "mock" || st.Codec != "mock" {
		t.Errorf("backends: got servo=%q codec=%q", st.ServoBackend, st.Codec)
	}
	if len(st.Channels) != 3 {
		t.Errorf("channels: got %d, want 3", len(st.Channels))
	}
	if !st.Storage.Available {
		t.Error("storage not available")
	}
}

func TestServer_ServoMove(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "POST", "/api/servo", ServoRequest{Channel: "head", Angle: 200})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Channel string `json:"channel"`
		Angle   int    `json:"angle"`
	}
	decode(t, resp, &body)
	if body.Angle != 120 {
		t.Errorf("angle: got %d, want clamped 120", body.Angle)
	}

	resp = doJSON(t, s, "POST", "/api/servo", ServoRequest{Channel: "tail", Angle: 50})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown channel: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, s, "POST", "/api/servo", ServoRequest{Angle: 50})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing channel: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	req := httptest.NewRequest("POST", "/api/servo", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_GestureBusyPolicy(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "POST", "/api/gestures/wave", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wave: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Gesture string `json:"gesture"`
		State   string `json:"state"`
	}
	decode(t, resp, &body)
	if body.State != "started" {
		t.Errorf("wave state: got %q, want started", body.State)
	}

	resp = doJSON(t, s, "POST", "/api/gestures/excited", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("excited: got %d, want 200", resp.StatusCode)
	}
	decode(t, resp, &body)
	if body.State != "queued" {
		t.Errorf("excited state: got %q, want queued", body.State)
	}

	resp = doJSON(t, s, "POST", "/api/gestures/curious", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("curious with full queue: got %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, s, "POST", "/api/gestures/moonwalk", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown gesture: got %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	// Direct moves are refused while a gesture holds the actuators.
	resp = doJSON(t, s, "POST", "/api/servo", ServoRequest{Channel: "head", Angle: 100})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("servo while busy: got %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_Play(t *testing.T) {
	s, a := newTestServer(t)

	resp := doJSON(t, s, "POST", "/api/play", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("play: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		State string `json:"state"`
	}
	decode(t, resp, &body)
	if body.State != "started" {
		t.Errorf("play state: got %q, want started", body.State)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if a.Status().Audio.State == "completed" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("playback did not complete, audio state %q", a.Status().Audio.State)
}

func TestServer_Volume(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "POST", "/api/volume", VolumeRequest{Level: 150})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, s, "POST", "/api/volume", VolumeRequest{Level: 70})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("volume: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Volume int `json:"volume"`
	}
	decode(t, resp, &body)
	if body.Volume != 70 {
		t.Errorf("volume: got %d, want 70", body.Volume)
	}
}

func TestServer_StorageReinit(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "POST", "/api/storage/reinit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reinit: got %d, want 200", resp.StatusCode)
	}
}

func TestServer_RawCommand(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "POST", "/api/command", CommandRequest{Line: "head_75"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("command: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Accepted bool `json:"accepted"`
	}
	decode(t, resp, &body)
	if !body.Accepted {
		t.Error("command not accepted")
	}

	resp = doJSON(t, s, "POST", "/api/command", CommandRequest{Line: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank line: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_ListGestures(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "GET", "/api/gestures", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("gestures: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Gestures []string `json:"gestures"`
	}
	decode(t, resp, &body)
	if len(body.Gestures) < 6 {
		t.Errorf("gestures: got %v, want at least the builtins", body.Gestures)
	}
}

func TestServer_WSRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)

	resp := doJSON(t, s, "GET", "/ws/diag", nil)
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("plain GET on ws route: got %d, want 426", resp.StatusCode)
	}
}

package capture

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/minutes/audio"
	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/voice/voicetest"
)

const waitTimeout = 5 * time.Second

var testFormat = audio.Format{Codec: audio.CodecPCM16, SampleRate: 16000, Channels: 1}

// catTranscoder copies stdin to the clip path unchanged.
func catTranscoder() *CommandTranscoder {
	return &CommandTranscoder{
		Binary:      "sh",
		Args:        func(out string, _ audio.Format) []string { return []string{"-c", `cat > "$0"`, out} },
		GracePeriod: time.Second,
	}
}

type harness struct {
	t       *testing.T
	conn    *voicetest.Conn
	mgr     *Manager
	outcome chan Outcome
}

func newHarness(t *testing.T, tc Transcoder) *harness {
	t.Helper()
	src := &voicetest.Source{Format: testFormat}
	conn, err := src.Connect(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h := &harness{t: t, conn: conn.(*voicetest.Conn), outcome: make(chan Outcome, 16)}
	h.mgr = NewManager(conn, Options{
		Dir:        t.TempDir(),
		Transcoder: tc,
		OnClosed:   func(_ context.Context, out Outcome) { h.outcome <- out },
	})
	t.Cleanup(func() {
		_ = conn.Close()
		h.mgr.Wait()
	})
	return h
}

func (h *harness) start(speakerID string) {
	h.t.Helper()
	if !h.mgr.HandleSpeaking(context.Background(), speakerID) {
		h.t.Fatalf("HandleSpeaking(%q) did not start a capture", speakerID)
	}
	if !h.conn.WaitSubscribed(speakerID, waitTimeout) {
		h.t.Fatalf("speaker %q never subscribed", speakerID)
	}
}

func (h *harness) next() Outcome {
	h.t.Helper()
	select {
	case out := <-h.outcome:
		return out
	case <-time.After(waitTimeout):
		h.t.Fatal("timed out waiting for capture to close")
		return Outcome{}
	}
}

func waitFileSize(t *testing.T, path string, size int64) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if info, err := os.Stat(path); err == nil && info.Size() >= size {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s never reached %d bytes", path, size)
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateCapturing, true},
		{StateCapturing, StateFinalizing, true},
		{StateFinalizing, StateClosed, true},
		{StateIdle, StateClosed, false},
		{StateCapturing, StateClosed, false},
		{StateCapturing, StateCapturing, false},
		{StateClosed, StateCapturing, false},
		{StateClosed, StateIdle, false},
	}
	for _, tc := range tests {
		t.Run(tc.from.String()+"_to_"+tc.to.String(), func(t *testing.T) {
			if got := isValidTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("isValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestClipNamerUnique(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	n := NewClipNamer("/rec")
	n.now = func() time.Time { return fixed }

	a := n.Next("42")
	b := n.Next("42")
	if a == b {
		t.Fatalf("expected unique clip names, got %q twice", a)
	}
	re := regexp.MustCompile(`^/rec/voice_2026-10-18_\d+-\d+_42\.mp3$`)
	if !re.MatchString(a) {
		t.Errorf("unexpected clip name %q", a)
	}
	if got := n.Next("../x y"); filepath.Dir(got) != "/rec" || !strings.HasSuffix(got, "-3____x_y.mp3") {
		t.Errorf("speaker id not sanitized: %q", got)
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := FFmpegArgs(4)("/rec/a.mp3", audio.Format{SampleRate: 48000, Channels: 2})
	want := "-y -loglevel error -f s16le -ar 48000 -ac 2 -i pipe:0 -acodec libmp3lame -q:a 4 /rec/a.mp3"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args = %q\nwant   %q", got, want)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Silence != 1200*time.Millisecond || cfg.ConnectTimeout != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Transcoder.Binary != "ffmpeg" || cfg.Transcoder.Quality != 6 {
		t.Errorf("unexpected transcoder defaults: %+v", cfg.Transcoder)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.Transcoder.Quality = 12
	if err := cfg.Validate(); err == nil {
		t.Error("expected quality error")
	}
}

func TestManagerRecordsUtterance(t *testing.T) {
	h := newHarness(t, catTranscoder())
	h.start("1")

	payload := []byte{1, 2, 3, 4, 5, 6}
	if !h.conn.Send("1", payload) {
		t.Fatal("Send failed")
	}
	h.conn.EndUtterance("1")

	out := h.next()
	if err := out.Err(); err != nil {
		t.Fatalf("unexpected pipeline errors: %v", err)
	}
	if out.ExitCode != 0 || out.Forced {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if out.PCMBytes != int64(len(payload)) || out.ClipBytes != int64(len(payload)) {
		t.Errorf("pcm=%d clip=%d, want %d", out.PCMBytes, out.ClipBytes, len(payload))
	}
	got, err := os.ReadFile(out.ClipPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("clip = %v, want %v", got, payload)
	}
	if n := h.mgr.Len(); n != 0 {
		t.Errorf("expected no active captures, got %d", n)
	}
}

func TestManagerOneCapturePerSpeaker(t *testing.T) {
	h := newHarness(t, catTranscoder())
	h.start("1")

	if h.mgr.HandleSpeaking(context.Background(), "1") {
		t.Fatal("second speaking-start must not start a capture")
	}
	active := h.mgr.Active()
	if len(active) != 1 || active[0].SpeakerID != "1" || active[0].State != "capturing" {
		t.Fatalf("unexpected active set: %+v", active)
	}

	h.conn.EndUtterance("1")
	first := h.next()

	h.start("1")
	h.conn.EndUtterance("1")
	second := h.next()

	if first.ClipPath == second.ClipPath {
		t.Errorf("expected distinct clips, got %q twice", first.ClipPath)
	}
	if n := h.conn.Subscriptions("1"); n != 2 {
		t.Errorf("expected 2 subscriptions, got %d", n)
	}
}

func TestManagerSpeakersIndependent(t *testing.T) {
	h := newHarness(t, catTranscoder())
	h.start("a")
	h.start("b")
	if n := h.mgr.Len(); n != 2 {
		t.Fatalf("expected 2 active captures, got %d", n)
	}

	h.conn.Send("a", []byte{1, 1})
	h.conn.Send("b", []byte{2, 2, 2, 2})
	h.conn.EndUtterance("b")

	out := h.next()
	if out.SpeakerID != "b" || out.ClipBytes != 4 {
		t.Fatalf("unexpected first outcome: %+v", out)
	}
	if active := h.mgr.Active(); len(active) != 1 || active[0].SpeakerID != "a" {
		t.Fatalf("speaker a should still be capturing: %+v", active)
	}

	h.conn.EndUtterance("a")
	out = h.next()
	if out.SpeakerID != "a" || out.ClipBytes != 2 {
		t.Errorf("unexpected second outcome: %+v", out)
	}
}

func TestFinalizeAllForcesClose(t *testing.T) {
	h := newHarness(t, catTranscoder())
	h.start("1")
	h.conn.Send("1", []byte{9, 9, 9, 9})
	active := h.mgr.Active()
	if len(active) != 1 {
		t.Fatalf("expected one capture, got %+v", active)
	}
	waitFileSize(t, active[0].ClipPath, 4)

	done := h.mgr.FinalizeAll()
	if len(done) != 1 {
		t.Fatalf("expected 1 closed channel, got %d", len(done))
	}
	select {
	case <-done[0]:
	case <-time.After(waitTimeout):
		t.Fatal("capture did not close after FinalizeAll")
	}

	out := h.next()
	if !out.Forced {
		t.Errorf("expected forced outcome: %+v", out)
	}
	if out.ClipBytes != 4 {
		t.Errorf("clip bytes = %d, want 4", out.ClipBytes)
	}
	if h.mgr.Len() != 0 {
		t.Error("active set not empty after FinalizeAll")
	}
	if h.mgr.HandleSpeaking(context.Background(), "2") {
		t.Error("no capture may start after FinalizeAll")
	}
}

func TestPipelineSpawnFailure(t *testing.T) {
	h := newHarness(t, &CommandTranscoder{Binary: "/nonexistent/ffmpeg"})
	if !h.mgr.HandleSpeaking(context.Background(), "1") {
		t.Fatal("HandleSpeaking did not start a capture")
	}

	out := h.next()
	appErr, ok := apperrors.AsAppError(out.Err())
	if !ok || appErr.Code != apperrors.ErrCodePipelineFailure {
		t.Fatalf("expected pipeline failure, got %v", out.Err())
	}
	if out.ClipBytes != 0 {
		t.Errorf("expected no clip, got %d bytes", out.ClipBytes)
	}
	if h.mgr.Len() != 0 {
		t.Error("failed capture must still leave the active set")
	}
}

func TestPipelineTranscoderExitCode(t *testing.T) {
	tc := &CommandTranscoder{
		Binary: "sh",
		Args:   func(string, audio.Format) []string { return []string{"-c", "echo bad input >&2; exit 3"} },
	}
	h := newHarness(t, tc)
	h.start("1")
	h.conn.EndUtterance("1")

	out := h.next()
	if out.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", out.ExitCode)
	}
	if !strings.Contains(string(out.Stderr), "bad input") {
		t.Errorf("stderr not captured: %q", out.Stderr)
	}
	if out.Err() == nil {
		t.Error("expected encode failure on outcome")
	}
}

func TestTranscoderCheck(t *testing.T) {
	if err := (&CommandTranscoder{Binary: "/nonexistent/ffmpeg"}).Check(context.Background()); err == nil {
		t.Error("expected error for missing binary")
	}
}

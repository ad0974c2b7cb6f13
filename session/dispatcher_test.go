package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T, tr *fakeTranscriber, pub *fakePublisher) (*Dispatcher, *PendingSet) {
	t.Helper()
	pending := NewPendingSet()
	d := NewDispatcher(Session{ID: "s-1", RoutingToken: "room-1"}, pending, tr, nil, pub, nil, nil)
	return d, pending
}

func writeClip(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice_2026-10-18_1_42.mp3")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func waitJob(t *testing.T, j *PendingJob) {
	t.Helper()
	select {
	case <-j.Done():
	case <-time.After(waitTimeout):
		t.Fatal("job never settled")
	}
}

func TestDispatchSkipsMissingAndEmptyClips(t *testing.T) {
	tr := &fakeTranscriber{text: "x"}
	d, pending := newTestDispatcher(t, tr, newPublisher())

	empty := writeClip(t, nil)
	if j := d.Dispatch(context.Background(), empty, "42"); j != nil {
		t.Error("empty clip was dispatched")
	}
	if _, err := os.Stat(empty); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("empty clip not deleted: %v", err)
	}

	if j := d.Dispatch(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"), "42"); j != nil {
		t.Error("missing clip was dispatched")
	}
	if tr.calls() != 0 || pending.Len() != 0 {
		t.Errorf("calls=%d pending=%d, want 0/0", tr.calls(), pending.Len())
	}
}

func TestDispatchEmptyTextIsNotPublished(t *testing.T) {
	tr := &fakeTranscriber{}
	pub := newPublisher()
	d, pending := newTestDispatcher(t, tr, pub)

	clip := writeClip(t, []byte{1, 2})
	j := d.Dispatch(context.Background(), clip, "42")
	if j == nil {
		t.Fatal("clip was not dispatched")
	}
	waitJob(t, j)

	if len(pub.entries) != 0 {
		t.Error("empty transcription was published")
	}
	if pending.Len() != 0 {
		t.Error("job still pending")
	}
	if _, err := os.Stat(clip); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("clip not deleted: %v", err)
	}
}

func TestDispatchPublishFailureStillSettles(t *testing.T) {
	tr := &fakeTranscriber{text: "hello"}
	pub := newPublisher()
	pub.err = errors.New("wiki down")
	d, pending := newTestDispatcher(t, tr, pub)
	fixed := time.Date(2026, 10, 18, 9, 31, 5, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	clip := writeClip(t, []byte{1, 2})
	j := d.Dispatch(context.Background(), clip, "42")
	if j == nil {
		t.Fatal("clip was not dispatched")
	}
	if j.SpeakerID != "42" || j.ClipPath != clip {
		t.Errorf("job = %+v", j)
	}
	waitJob(t, j)

	e := <-pub.entries
	if e.Label != "User_42" || !e.Timestamp.Equal(fixed) {
		t.Errorf("entry = %+v", e)
	}
	if pending.Len() != 0 {
		t.Error("job still pending after publish failure")
	}
	if _, err := os.Stat(clip); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("clip not deleted: %v", err)
	}
}

func TestPendingSetDrainWaitsForAll(t *testing.T) {
	s := NewPendingSet()
	a := s.add("1", "a.mp3")
	b := s.add("2", "b.mp3")
	if got := s.Snapshot(); len(got) != 2 {
		t.Fatalf("snapshot = %v", got)
	}

	drained := make(chan struct{})
	go func() {
		s.Drain()
		close(drained)
	}()

	s.remove(a)
	close(a.done)
	select {
	case <-drained:
		t.Fatal("Drain returned with a job in flight")
	case <-time.After(50 * time.Millisecond):
	}

	s.remove(b)
	close(b.done)
	select {
	case <-drained:
	case <-time.After(waitTimeout):
		t.Fatal("Drain never returned")
	}
}

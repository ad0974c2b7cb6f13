package voice

import (
	"io"
	"sync"
	"time"
)

// PacketStream is a Stream fed by pushed packets. Pushes never block; the
// queue is drained by a single reader. When a silence duration is set the
// stream ends after that long without a push.
type PacketStream struct {
	speakerID string
	silence   time.Duration
	onEnd     func()

	mu     sync.Mutex
	queue  [][]byte
	cur    []byte
	ended  bool
	timer  *time.Timer
	notify chan struct{}
}

var _ Stream = (*PacketStream)(nil)

// NewPacketStream creates a stream for speakerID. onEnd, if set, runs once
// when the stream ends for any reason.
func NewPacketStream(speakerID string, silence time.Duration, onEnd func()) *PacketStream {
	s := &PacketStream{
		speakerID: speakerID,
		silence:   silence,
		onEnd:     onEnd,
		notify:    make(chan struct{}, 1),
	}
	if silence > 0 {
		s.timer = time.AfterFunc(silence, s.End)
	}
	return s
}

// SpeakerID returns the speaker this stream belongs to.
func (s *PacketStream) SpeakerID() string { return s.speakerID }

// Push queues a packet and restarts the silence timer. It returns false
// once the stream has ended.
func (s *PacketStream) Push(p []byte) bool {
	if len(p) == 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.queue = append(s.queue, p)
	if s.timer != nil {
		s.timer.Reset(s.silence)
	}
	s.wake()
	return true
}

// End marks the end of the utterance. Queued packets are still delivered
// before Read reports io.EOF.
func (s *PacketStream) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.wake()
	s.mu.Unlock()

	if s.onEnd != nil {
		s.onEnd()
	}
}

// SetSilence replaces the silence duration and restarts the timer from now.
// A non-positive duration disables the timer.
func (s *PacketStream) SetSilence(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silence = d
	if s.ended {
		return
	}
	switch {
	case d <= 0:
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	case s.timer == nil:
		s.timer = time.AfterFunc(d, s.End)
	default:
		s.timer.Reset(d)
	}
}

// Ended reports whether End has been called.
func (s *PacketStream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Read implements io.Reader.
func (s *PacketStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		s.mu.Lock()
		if len(s.cur) == 0 && len(s.queue) > 0 {
			s.cur = s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
		}
		if len(s.cur) > 0 {
			n := copy(p, s.cur)
			s.cur = s.cur[n:]
			s.mu.Unlock()
			return n, nil
		}
		if s.ended {
			s.mu.Unlock()
			return 0, io.EOF
		}
		s.mu.Unlock()
		<-s.notify
	}
}

// Close ends the stream.
func (s *PacketStream) Close() error {
	s.End()
	return nil
}

func (s *PacketStream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

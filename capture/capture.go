package capture

import (
	"sync"
	"time"

	"github.com/kbukum/minutes/voice"
)

// Capture is one utterance being recorded for one speaker. At most one
// capture per speaker exists in a Manager at any time.
type Capture struct {
	SpeakerID string
	ClipPath  string
	StartedAt time.Time

	mu     sync.Mutex
	state  State
	forced bool
	stream voice.Stream
	enc    Encoding
	closed chan struct{}
}

func newCapture(speakerID, clipPath string) *Capture {
	return &Capture{
		SpeakerID: speakerID,
		ClipPath:  clipPath,
		StartedAt: time.Now(),
		state:     StateIdle,
		closed:    make(chan struct{}),
	}
}

// State returns the current state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Forced reports whether the capture was finalized by FinalizeAll.
func (c *Capture) Forced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forced
}

// Closed is closed after the capture reached StateClosed and its outcome was
// handed to the manager's OnClosed hook.
func (c *Capture) Closed() <-chan struct{} {
	return c.closed
}

// transition moves to the given state and reports the previous one. Edges
// outside the state machine are rejected.
func (c *Capture) transition(to State) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	from := c.state
	if !isValidTransition(from, to) {
		return from, false
	}
	c.state = to
	return from, true
}

// attachStream records the subscribed stream. If the capture was already
// forced the stream is closed right away.
func (c *Capture) attachStream(s voice.Stream) {
	c.mu.Lock()
	c.stream = s
	forced := c.forced
	c.mu.Unlock()
	if forced {
		_ = s.Close()
	}
}

// attachEncoding records the running transcoder. If the capture was already
// forced the process is terminated right away.
func (c *Capture) attachEncoding(e Encoding) {
	c.mu.Lock()
	c.enc = e
	forced := c.forced
	c.mu.Unlock()
	if forced {
		e.Terminate()
	}
}

// finalize forces the end of the utterance: the input stream is closed and
// the transcoder is asked to terminate.
func (c *Capture) finalize() {
	c.mu.Lock()
	if c.state == StateCapturing {
		c.state = StateFinalizing
	}
	c.forced = true
	s, e := c.stream, c.enc
	c.mu.Unlock()

	if s != nil {
		_ = s.Close()
	}
	if e != nil {
		e.Terminate()
	}
}

// Info is a read-only view of a capture.
type Info struct {
	SpeakerID string    `json:"speaker_id"`
	ClipPath  string    `json:"clip_path"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

func (c *Capture) info() Info {
	return Info{
		SpeakerID: c.SpeakerID,
		ClipPath:  c.ClipPath,
		State:     c.State().String(),
		StartedAt: c.StartedAt,
	}
}

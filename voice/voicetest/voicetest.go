// Package voicetest provides an in-memory voice.Source for tests.
package voicetest

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/minutes/audio"
	"github.com/kbukum/minutes/voice"
)

// Source is a scriptable voice.Source.
type Source struct {
	// Format is reported by every connection. Zero means audio.DefaultFormat.
	Format audio.Format
	// ConnectDelay delays Connect; a context deadline shorter than the delay
	// makes Connect fail.
	ConnectDelay time.Duration
	// ConnectErr is returned by Connect when set.
	ConnectErr error

	mu    sync.Mutex
	conns []*Conn
}

var _ voice.Source = (*Source)(nil)

// Connect implements voice.Source.
func (s *Source) Connect(ctx context.Context, routingToken string) (voice.Connection, error) {
	if s.ConnectDelay > 0 {
		timer := time.NewTimer(s.ConnectDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}

	c := &Conn{
		token:    routingToken,
		format:   s.Format.WithDefaults(),
		speaking: make(chan voice.SpeakingEvent, 64),
		streams:  make(map[string]*voice.PacketStream),
		subs:     make(map[string]int),
	}
	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.mu.Unlock()
	return c, nil
}

// Last returns the most recent connection, or nil.
func (s *Source) Last() *Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		return nil
	}
	return s.conns[len(s.conns)-1]
}

// Connections returns how many times Connect succeeded.
func (s *Source) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Conn is an in-memory voice.Connection.
type Conn struct {
	token  string
	format audio.Format

	mu       sync.Mutex
	speaking chan voice.SpeakingEvent
	streams  map[string]*voice.PacketStream
	subs     map[string]int
	closed   bool
}

var _ voice.Connection = (*Conn)(nil)

// RoutingToken returns the token passed to Connect.
func (c *Conn) RoutingToken() string { return c.token }

// Format implements voice.Connection.
func (c *Conn) Format() audio.Format { return c.format }

// Speaking implements voice.Connection.
func (c *Conn) Speaking() <-chan voice.SpeakingEvent { return c.speaking }

// Subscribe implements voice.Connection.
func (c *Conn) Subscribe(speakerID string, opts voice.SubscribeOptions) (voice.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, voice.ErrClosed
	}
	var s *voice.PacketStream
	s = voice.NewPacketStream(speakerID, opts.Silence, func() {
		c.mu.Lock()
		if c.streams[speakerID] == s {
			delete(c.streams, speakerID)
		}
		c.mu.Unlock()
	})
	c.streams[speakerID] = s
	c.subs[speakerID]++
	return s, nil
}

// Close implements voice.Connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.speaking)
	streams := make([]*voice.PacketStream, 0, len(c.streams))
	for _, s := range c.streams {
		streams = append(streams, s)
	}
	c.mu.Unlock()

	for _, s := range streams {
		s.End()
	}
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Speak emits a speaking-start signal for the speaker.
func (c *Conn) Speak(speakerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.speaking <- voice.SpeakingEvent{SpeakerID: speakerID, At: time.Now()}
}

// Send pushes audio to the speaker's open stream. It returns false when the
// speaker has no open stream.
func (c *Conn) Send(speakerID string, data []byte) bool {
	c.mu.Lock()
	s := c.streams[speakerID]
	c.mu.Unlock()
	if s == nil {
		return false
	}
	return s.Push(data)
}

// EndUtterance ends the speaker's open stream as if silence elapsed.
func (c *Conn) EndUtterance(speakerID string) {
	c.mu.Lock()
	s := c.streams[speakerID]
	c.mu.Unlock()
	if s != nil {
		s.End()
	}
}

// Subscriptions returns how many streams were opened for the speaker.
func (c *Conn) Subscriptions(speakerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[speakerID]
}

// WaitSubscribed blocks until the speaker has an open stream or the timeout
// elapses.
func (c *Conn) WaitSubscribed(speakerID string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		_, ok := c.streams[speakerID]
		c.mu.Unlock()
		if ok {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

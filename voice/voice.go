package voice

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kbukum/minutes/audio"
)

// ErrClosed is returned when subscribing on a closed connection.
var ErrClosed = errors.New("voice: connection closed")

// SpeakingEvent signals that a participant started speaking.
type SpeakingEvent struct {
	SpeakerID string
	At        time.Time
}

// SubscribeOptions controls how a per-speaker stream ends.
type SubscribeOptions struct {
	// Silence ends the stream after this long without audio. Zero disables
	// the silence boundary; the stream then ends only on Close.
	Silence time.Duration
}

// Stream is one speaker's encoded audio for a single utterance.
type Stream interface {
	io.ReadCloser
	SpeakerID() string
}

// Connection is an attached voice session.
type Connection interface {
	// Format describes the bytes carried on every Stream.
	Format() audio.Format
	// Speaking delivers speaking-start signals. It is closed when the
	// connection closes.
	Speaking() <-chan SpeakingEvent
	// Subscribe opens a stream for the speaker's current utterance.
	Subscribe(speakerID string, opts SubscribeOptions) (Stream, error)
	// Close detaches from the session and ends every open stream.
	Close() error
}

// Source attaches to the voice session addressed by a routing token.
type Source interface {
	Connect(ctx context.Context, routingToken string) (Connection, error)
}

// Package bridge attaches to a voice gateway sidecar over WebSocket.
//
// The gateway joins the voice channel addressed by the routing token and
// relays per-speaker audio as JSON events:
//
//	{"event":"ready","codec":"pcm_s16le","sample_rate":48000,"channels":2}
//	{"event":"speaking","speaker_id":"42"}
//	{"event":"media","speaker_id":"42","payload":"<base64>"}
//	{"event":"stop"}
package bridge

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/minutes/audio"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/voice"
)

const (
	eventReady    = "ready"
	eventSpeaking = "speaking"
	eventMedia    = "media"
	eventStop     = "stop"
)

type event struct {
	Event      string `json:"event"`
	SpeakerID  string `json:"speaker_id,omitempty"`
	Payload    string `json:"payload,omitempty"`
	Codec      string `json:"codec,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// Source dials the gateway once per session.
type Source struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *logger.Logger
}

var _ voice.Source = (*Source)(nil)

// New creates a gateway source.
func New(cfg Config, log *logger.Logger) *Source {
	cfg.ApplyDefaults()
	return &Source{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
		},
		log: log.WithComponent("voice.bridge"),
	}
}

// Connect dials the gateway and blocks until it reports ready or ctx ends.
func (s *Source) Connect(ctx context.Context, routingToken string) (voice.Connection, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("bridge: parse url: %w", err)
	}
	q := u.Query()
	q.Set("routing", routingToken)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if s.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	ws, resp, err := s.dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: dial: %w", err)
	}

	format, err := awaitReady(ctx, ws)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	c := &connection{
		ws:        ws,
		format:    format,
		log:       s.log.WithFields(map[string]interface{}{"routing": routingToken}),
		pending:   s.cfg.PendingSilence,
		speaking:  make(chan voice.SpeakingEvent, 64),
		streams:   make(map[string]*speakerStream),
		done:      make(chan struct{}),
		loopEnded: make(chan struct{}),
	}
	go c.readLoop()

	c.log.Info("voice gateway ready", logger.Fields("format", format.String()))
	return c, nil
}

func awaitReady(ctx context.Context, ws *websocket.Conn) (audio.Format, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		var ev event
		if err := ws.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return audio.Format{}, fmt.Errorf("bridge: waiting for ready: %w", ctx.Err())
			}
			return audio.Format{}, fmt.Errorf("bridge: waiting for ready: %w", err)
		}
		if ev.Event != eventReady {
			continue
		}
		format := audio.Format{Codec: ev.Codec, SampleRate: ev.SampleRate, Channels: ev.Channels}.WithDefaults()
		if err := format.Validate(); err != nil {
			return audio.Format{}, fmt.Errorf("bridge: gateway format: %w", err)
		}
		_ = ws.SetReadDeadline(time.Time{})
		return format, nil
	}
}

// speakerStream is opened by the read loop when a speaker starts talking so
// media arriving before Subscribe is queued rather than dropped.
type speakerStream struct {
	stream  *voice.PacketStream
	claimed bool
}

type connection struct {
	ws      *websocket.Conn
	format  audio.Format
	log     *logger.Logger
	pending time.Duration

	speaking  chan voice.SpeakingEvent
	done      chan struct{}
	loopEnded chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	streams map[string]*speakerStream
	closed  bool
}

func (c *connection) Format() audio.Format                 { return c.format }
func (c *connection) Speaking() <-chan voice.SpeakingEvent { return c.speaking }

func (c *connection) Subscribe(speakerID string, opts voice.SubscribeOptions) (voice.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, voice.ErrClosed
	}
	if e := c.streams[speakerID]; e != nil && !e.claimed && !e.stream.Ended() {
		e.claimed = true
		e.stream.SetSilence(opts.Silence)
		return e.stream, nil
	}
	e := c.openLocked(speakerID, opts.Silence)
	e.claimed = true
	return e.stream, nil
}

// openLocked registers a new stream for speakerID, replacing any previous
// one. c.mu must be held.
func (c *connection) openLocked(speakerID string, silence time.Duration) *speakerStream {
	e := &speakerStream{}
	e.stream = voice.NewPacketStream(speakerID, silence, func() {
		c.mu.Lock()
		if c.streams[speakerID] == e {
			delete(c.streams, speakerID)
		}
		c.mu.Unlock()
	})
	c.streams[speakerID] = e
	return e
}

// open starts an unclaimed stream for speakerID unless one is already open.
func (c *connection) open(speakerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.streams[speakerID] != nil {
		return
	}
	c.openLocked(speakerID, c.pending)
}

// Close sends a close frame, tears down the socket and waits for the read
// loop to end every open stream.
func (c *connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session stopped"),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	<-c.loopEnded
	return err
}

func (c *connection) readLoop() {
	defer c.shutdown()
	for {
		var ev event
		if err := c.ws.ReadJSON(&ev); err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("voice gateway read failed", logger.Fields(logger.FieldError, err.Error()))
			}
			return
		}

		switch ev.Event {
		case eventSpeaking:
			if ev.SpeakerID == "" {
				continue
			}
			c.open(ev.SpeakerID)
			select {
			case c.speaking <- voice.SpeakingEvent{SpeakerID: ev.SpeakerID, At: time.Now()}:
			case <-c.done:
				return
			}
		case eventMedia:
			c.media(ev)
		case eventStop:
			c.log.Info("voice gateway ended the session")
			return
		case eventReady:
		default:
			c.log.Debug("ignoring gateway event", logger.Fields("event", ev.Event))
		}
	}
}

func (c *connection) media(ev event) {
	c.mu.Lock()
	e := c.streams[ev.SpeakerID]
	c.mu.Unlock()
	if e == nil {
		return
	}
	data, err := base64.StdEncoding.DecodeString(ev.Payload)
	if err != nil {
		c.log.Warn("invalid media payload", logger.Fields(logger.FieldSpeakerID, ev.SpeakerID, logger.FieldError, err.Error()))
		return
	}
	e.stream.Push(data)
}

func (c *connection) shutdown() {
	c.mu.Lock()
	c.closed = true
	streams := make([]*voice.PacketStream, 0, len(c.streams))
	for _, e := range c.streams {
		streams = append(streams, e.stream)
	}
	c.mu.Unlock()

	for _, s := range streams {
		s.End()
	}
	close(c.speaking)
	close(c.loopEnded)
}

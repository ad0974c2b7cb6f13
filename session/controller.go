package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/minutes/capture"
	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/publish"
	"github.com/kbukum/minutes/speaker"
	"github.com/kbukum/minutes/transcription"
	"github.com/kbukum/minutes/voice"
)

// ErrNoSource is returned by Start when neither the call nor the controller
// supplies an audio source.
var ErrNoSource = errors.New("session: no audio source")

// Options wires a Controller.
type Options struct {
	// Source is used when Start is called with a nil source.
	Source      voice.Source
	Capture     capture.Config
	Transcoder  capture.Transcoder
	Transcriber transcription.Transcriber
	Resolver    speaker.Resolver
	Publisher   publish.Publisher
	// Observer is told when a session starts and when its minutes are complete.
	Observer publish.Observer
	Logger   *logger.Logger
	Metrics  *observability.Metrics
}

// run is the state owned by one active session.
type run struct {
	session    Session
	conn       voice.Connection
	manager    *capture.Manager
	pending    *PendingSet
	cancel     context.CancelFunc
	listenDone chan struct{}
	// sourceEnded is set when the source stopped emitting speaking signals
	// before Stop. Guarded by Controller.mu.
	sourceEnded bool
}

// Controller owns at most one recording session at a time.
type Controller struct {
	opts Options
	log  *logger.Logger
	now  func() time.Time

	mu       sync.Mutex
	current  *run
	starting bool
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	opts.Capture.ApplyDefaults()
	if opts.Transcoder == nil {
		opts.Transcoder = capture.NewFFmpeg(opts.Capture.Transcoder)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{
		opts: opts,
		log:  log.WithComponent("session"),
		now:  time.Now,
	}
}

// Start attaches to source (or the configured source when nil) and begins
// recording. A second Start while a session exists is a Conflict; a source
// that cannot be attached within the connect timeout is a CONNECT_FAILURE
// and leaves the controller idle.
func (c *Controller) Start(ctx context.Context, source voice.Source, routingToken string) (*Session, error) {
	if source == nil {
		source = c.opts.Source
	}
	if source == nil {
		return nil, apperrors.ConnectFailure("voice", ErrNoSource)
	}

	c.mu.Lock()
	if c.current != nil {
		id := c.current.session.ID
		c.mu.Unlock()
		return nil, apperrors.SessionActive(id)
	}
	if c.starting {
		c.mu.Unlock()
		return nil, apperrors.SessionActive("")
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	if err := os.MkdirAll(c.opts.Capture.RecordingDir, 0o755); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("recording dir: %w", err))
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.opts.Capture.ConnectTimeout)
	conn, err := source.Connect(connectCtx, routingToken)
	cancel()
	if err != nil {
		appErr := apperrors.ConnectFailure("voice", err).WithDetail("routing_token", routingToken)
		c.log.Warn("voice connect failed", logger.Fields(
			"routing_token", routingToken,
			"timeout", c.opts.Capture.ConnectTimeout.String(),
			logger.FieldError, err.Error(),
		))
		return nil, appErr
	}

	s := Session{
		ID:           uuid.NewString(),
		RoutingToken: routingToken,
		StartedAt:    c.now(),
		Active:       true,
	}
	// The session outlives the request that started it.
	runCtx, runCancel := context.WithCancel(logger.ContextWithSessionID(context.WithoutCancel(ctx), s.ID))

	pending := NewPendingSet()
	disp := NewDispatcher(s, pending, c.opts.Transcriber, c.opts.Resolver, c.opts.Publisher, c.opts.Logger, c.opts.Metrics)
	mgr := capture.NewManager(conn, capture.Options{
		Dir:        c.opts.Capture.RecordingDir,
		Silence:    c.opts.Capture.Silence,
		Transcoder: c.opts.Transcoder,
		OnClosed: func(ctx context.Context, out capture.Outcome) {
			disp.Dispatch(ctx, out.ClipPath, out.SpeakerID)
		},
		Logger:  c.opts.Logger,
		Metrics: c.opts.Metrics,
	})
	r := &run{
		session:    s,
		conn:       conn,
		manager:    mgr,
		pending:    pending,
		cancel:     runCancel,
		listenDone: make(chan struct{}),
	}

	c.mu.Lock()
	c.current = r
	c.mu.Unlock()

	go func() {
		defer close(r.listenDone)
		mgr.Listen(runCtx)
		c.listenEnded(runCtx, r)
	}()

	if c.opts.Observer != nil {
		if err := c.opts.Observer.SessionStarted(runCtx, s.info()); err != nil {
			c.log.Warn("session start notification failed", logger.ErrorFields("session_started", err))
		}
	}
	c.log.WithContext(runCtx).Info("recording started", logger.Fields("routing_token", routingToken))

	out := s
	return &out, nil
}

// Stop ends the current session and returns once every capture closed and
// every transcription settled. It is a no-op without an active session and
// for every caller but the first.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	r := c.current
	if r == nil || !r.session.Active {
		c.mu.Unlock()
		return
	}
	r.session.Active = false
	s := r.session
	c.mu.Unlock()

	log := c.log.WithContext(logger.ContextWithSessionID(ctx, s.ID))
	log.Info("stopping recording", logger.Fields(
		"active_captures", r.manager.Len(),
		"pending_jobs", r.pending.Len(),
	))
	start := c.now()

	for _, closed := range r.manager.FinalizeAll() {
		<-closed
	}
	if err := r.conn.Close(); err != nil {
		log.Warn("voice disconnect failed", logger.ErrorFields("close", err))
	}
	<-r.listenDone
	r.manager.Wait()

	if n := r.pending.Len(); n > 0 {
		log.Info("waiting for transcriptions", logger.Fields("pending_jobs", n))
	}
	r.pending.Drain()
	r.cancel()

	info := s.info()
	info.EndedAt = c.now()
	if c.opts.Observer != nil {
		notifyCtx := logger.ContextWithSessionID(context.WithoutCancel(ctx), s.ID)
		if err := c.opts.Observer.SessionCompleted(notifyCtx, info); err != nil {
			log.Warn("session completion notification failed", logger.ErrorFields("session_completed", err))
		}
	}

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	log.Info("recording stopped", logger.DurationFields("drain", c.now().Sub(start)))
}

// listenEnded flags a session whose source went away on its own. No new
// captures can start until the session is stopped and restarted.
func (c *Controller) listenEnded(ctx context.Context, r *run) {
	c.mu.Lock()
	ended := c.current == r && r.session.Active
	if ended {
		r.sourceEnded = true
	}
	c.mu.Unlock()
	if !ended {
		return
	}
	c.log.WithContext(ctx).Warn("voice source ended while recording; stop the session to flush its minutes", logger.Fields(
		"routing_token", r.session.RoutingToken,
		"active_captures", r.manager.Len(),
	))
}

// Current returns the session being recorded or drained.
func (c *Controller) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Session{}, false
	}
	return c.current.session, true
}

// Status describes the current session.
func (c *Controller) Status() (Status, bool) {
	c.mu.Lock()
	r := c.current
	var (
		s     Session
		ended bool
	)
	if r != nil {
		s, ended = r.session, r.sourceEnded
	}
	c.mu.Unlock()
	if r == nil {
		return Status{}, false
	}
	st := newStatus(s, c.now(), r.manager.Active(), r.pending.Len())
	st.SourceEnded = ended
	return st, true
}

package capture

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/voice"
)

// Options configures a Manager.
type Options struct {
	// Dir is where clips are written.
	Dir string
	// Silence is passed to the source as the end-of-utterance boundary.
	Silence    time.Duration
	Transcoder Transcoder
	// OnClosed runs for every capture after it reached StateClosed and left
	// the active set, before its Closed channel is closed.
	OnClosed func(ctx context.Context, out Outcome)
	Logger   *logger.Logger
	Metrics  *observability.Metrics
}

// Manager owns the active per-speaker captures of one voice connection.
type Manager struct {
	conn     voice.Connection
	namer    *ClipNamer
	pipeline *Pipeline
	onClosed func(ctx context.Context, out Outcome)
	log      *logger.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	active  map[string]*Capture
	closing bool
	wg      sync.WaitGroup
}

// NewManager creates a manager for conn.
func NewManager(conn voice.Connection, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("capture")
	return &Manager{
		conn:  conn,
		namer: NewClipNamer(opts.Dir),
		pipeline: &Pipeline{
			conn:       conn,
			transcoder: opts.Transcoder,
			silence:    opts.Silence,
			log:        log,
			metrics:    opts.Metrics,
		},
		onClosed: opts.OnClosed,
		log:      log,
		metrics:  opts.Metrics,
		active:   make(map[string]*Capture),
	}
}

// Listen starts a capture for every speaking signal until the connection's
// signal channel closes or ctx is done.
func (m *Manager) Listen(ctx context.Context) {
	speaking := m.conn.Speaking()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-speaking:
			if !ok {
				return
			}
			m.HandleSpeaking(ctx, ev.SpeakerID)
		}
	}
}

// HandleSpeaking starts a capture for speakerID unless one is already
// active or the manager is finalizing. It reports whether a capture started.
func (m *Manager) HandleSpeaking(ctx context.Context, speakerID string) bool {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return false
	}
	if _, ok := m.active[speakerID]; ok {
		m.mu.Unlock()
		return false
	}
	c := newCapture(speakerID, m.namer.Next(speakerID))
	if _, ok := c.transition(StateCapturing); !ok {
		m.mu.Unlock()
		m.log.Error("capture rejected transition", logger.Fields(
			logger.FieldSpeakerID, speakerID, logger.FieldState, c.State().String()))
		return false
	}
	m.active[speakerID] = c
	m.wg.Add(1)
	m.mu.Unlock()

	m.metrics.CaptureStarted(ctx, speakerID)
	m.log.Debug("capture started", logger.Fields(logger.FieldSpeakerID, speakerID, logger.FieldClip, c.ClipPath))
	go m.run(ctx, c)
	return true
}

func (m *Manager) run(ctx context.Context, c *Capture) {
	defer m.wg.Done()
	out := m.pipeline.Run(ctx, c)

	m.mu.Lock()
	// A pipeline that failed before reading ends in CAPTURING.
	if c.State() == StateCapturing {
		c.transition(StateFinalizing)
	}
	from, ok := c.transition(StateClosed)
	if m.active[c.SpeakerID] == c {
		delete(m.active, c.SpeakerID)
	}
	m.mu.Unlock()

	if !ok {
		m.log.Error("capture rejected transition", logger.Fields(
			logger.FieldSpeakerID, c.SpeakerID,
			logger.FieldState, from.String(),
			"to", StateClosed.String(),
		))
	}
	m.metrics.CaptureClosed(ctx, out.Forced)
	m.log.Debug("capture closed", logger.Fields(
		logger.FieldSpeakerID, c.SpeakerID,
		logger.FieldExitCode, out.ExitCode,
		"forced", out.Forced,
		"clip_bytes", out.ClipBytes,
	))

	if m.onClosed != nil {
		m.onClosed(ctx, out)
	}
	close(c.closed)
}

// FinalizeAll stops accepting new captures, forces every active capture to
// end and returns their Closed channels.
func (m *Manager) FinalizeAll() []<-chan struct{} {
	m.mu.Lock()
	m.closing = true
	captures := make([]*Capture, 0, len(m.active))
	for _, c := range m.active {
		captures = append(captures, c)
	}
	m.mu.Unlock()

	done := make([]<-chan struct{}, 0, len(captures))
	for _, c := range captures {
		c.finalize()
		done = append(done, c.Closed())
	}
	return done
}

// Wait blocks until every capture goroutine returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Active returns the active captures ordered by speaker ID.
func (m *Manager) Active() []Info {
	m.mu.Lock()
	infos := make([]Info, 0, len(m.active))
	for _, c := range m.active {
		infos = append(infos, c.info())
	}
	m.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].SpeakerID < infos[j].SpeakerID })
	return infos
}

// Len returns the number of active captures.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

package publish

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/provider"
)

// Entry is one transcribed utterance.
type Entry struct {
	SessionID    string    `json:"session_id"`
	RoutingToken string    `json:"routing_token"`
	SpeakerID    string    `json:"speaker_id"`
	Label        string    `json:"label"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionInfo describes a recording session to observers.
type SessionInfo struct {
	ID           string    `json:"id"`
	RoutingToken string    `json:"routing_token"`
	StartedAt    time.Time `json:"started_at"`
	// EndedAt is zero until the session completed.
	EndedAt time.Time `json:"ended_at,omitempty"`
}

// Publisher receives transcript entries.
type Publisher = provider.Sink[Entry]

// Observer is implemented by publishers that care about session boundaries.
type Observer interface {
	SessionStarted(ctx context.Context, info SessionInfo) error
	SessionCompleted(ctx context.Context, info SessionInfo) error
}

type target struct {
	name string
	sink Publisher
}

// Fanout delivers every entry to all registered publishers. A failing
// publisher is logged and counted; it never fails the caller.
type Fanout struct {
	log     *logger.Logger
	metrics *observability.Metrics

	mu        sync.RWMutex
	targets   []target
	observers []Observer
}

var (
	_ Publisher = (*Fanout)(nil)
	_ Observer  = (*Fanout)(nil)
)

// NewFanout creates an empty fanout.
func NewFanout(log *logger.Logger, metrics *observability.Metrics) *Fanout {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fanout{log: log.WithComponent("publish"), metrics: metrics}
}

// Add registers p behind the given resilience policies. If p also implements
// Observer it is notified of session boundaries.
func (f *Fanout) Add(p Publisher, res provider.ResilienceConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target{name: p.Name(), sink: provider.WithSinkResilience(p, res)})
	if o, ok := p.(Observer); ok {
		f.observers = append(f.observers, o)
	}
}

// Len returns the number of registered publishers.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.targets)
}

// Name implements provider.Provider.
func (f *Fanout) Name() string { return "fanout" }

// IsAvailable implements provider.Provider.
func (f *Fanout) IsAvailable(context.Context) bool { return true }

// Send publishes e to every available publisher in registration order.
func (f *Fanout) Send(ctx context.Context, e Entry) error {
	f.mu.RLock()
	targets := f.targets
	f.mu.RUnlock()

	for _, t := range targets {
		f.sendOne(ctx, t, e)
	}
	return nil
}

func (f *Fanout) sendOne(ctx context.Context, t target, e Entry) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPublish)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSessionID, e.SessionID)
	observability.SetSpanAttribute(ctx, observability.AttrSpeakerID, e.SpeakerID)
	observability.SetSpanAttribute(ctx, "minutes.publisher", t.name)

	if !t.sink.IsAvailable(ctx) {
		f.log.Debug("publisher unavailable, skipped", logger.Fields("publisher", t.name))
		return
	}
	if err := t.sink.Send(ctx, e); err != nil {
		observability.SetSpanError(ctx, err)
		f.metrics.PublishError(ctx, t.name)
		f.log.WithContext(ctx).Warn("publish failed", logger.Fields(
			"publisher", t.name,
			logger.FieldSessionID, e.SessionID,
			logger.FieldSpeakerID, e.SpeakerID,
			logger.FieldError, err.Error(),
		))
	}
}

// SessionStarted notifies every observer.
func (f *Fanout) SessionStarted(ctx context.Context, info SessionInfo) error {
	f.notify(ctx, "session_started", info, Observer.SessionStarted)
	return nil
}

// SessionCompleted notifies every observer.
func (f *Fanout) SessionCompleted(ctx context.Context, info SessionInfo) error {
	f.notify(ctx, "session_completed", info, Observer.SessionCompleted)
	return nil
}

func (f *Fanout) notify(ctx context.Context, op string, info SessionInfo, call func(Observer, context.Context, SessionInfo) error) {
	f.mu.RLock()
	observers := f.observers
	f.mu.RUnlock()

	for _, o := range observers {
		if err := call(o, ctx, info); err != nil {
			name := op
			if p, ok := o.(provider.Provider); ok {
				name = p.Name()
			}
			f.metrics.PublishError(ctx, name)
			f.log.Warn("session observer failed", logger.Fields(
				logger.FieldOperation, op,
				"publisher", name,
				logger.FieldSessionID, info.ID,
				logger.FieldError, err.Error(),
			))
		}
	}
}

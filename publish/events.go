package publish

import (
	"context"
	"fmt"

	"github.com/kbukum/minutes/kafka"
	"github.com/kbukum/minutes/kafka/producer"
)

const eventsName = "events"

// EventPublisher streams entries and session boundaries as JSON events.
// Every event of a session is keyed by the session ID.
type EventPublisher struct {
	pub    producer.Publisher
	topic  string
	source string
}

var (
	_ Publisher = (*EventPublisher)(nil)
	_ Observer  = (*EventPublisher)(nil)
)

// NewEventPublisher creates an event publisher writing to topic.
func NewEventPublisher(pub producer.Publisher, topic, source string) *EventPublisher {
	if source == "" {
		source = "minutes"
	}
	return &EventPublisher{pub: pub, topic: topic, source: source}
}

// Name implements provider.Provider.
func (p *EventPublisher) Name() string { return eventsName }

// IsAvailable implements provider.Provider.
func (p *EventPublisher) IsAvailable(context.Context) bool { return p.pub != nil }

// Send emits a transcript event.
func (p *EventPublisher) Send(ctx context.Context, e Entry) error {
	return p.emit(ctx, kafka.EventTranscript, e, e.SessionID)
}

// SessionStarted emits a session started event.
func (p *EventPublisher) SessionStarted(ctx context.Context, info SessionInfo) error {
	return p.emit(ctx, kafka.EventSessionStarted, info, info.ID)
}

// SessionCompleted emits a session completed event.
func (p *EventPublisher) SessionCompleted(ctx context.Context, info SessionInfo) error {
	return p.emit(ctx, kafka.EventSessionCompleted, info, info.ID)
}

func (p *EventPublisher) emit(ctx context.Context, eventType string, data any, sessionID string) error {
	ev, err := kafka.NewEvent(eventType, p.source, data, sessionID)
	if err != nil {
		return err
	}
	if err := p.pub.Publish(ctx, p.topic, ev); err != nil {
		return fmt.Errorf("event %s: %w", eventType, err)
	}
	return nil
}

package producer

import (
	"context"
	"fmt"

	"github.com/kbukum/minutes/kafka"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/provider"
)

// Publisher publishes structured events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event kafka.Event) error
}

// KafkaPublisher implements Publisher over a message sink, normally a
// Producer optionally wrapped with provider.WithSinkResilience.
type KafkaPublisher struct {
	sink provider.Sink[kafka.Message]
	log  *logger.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewPublisher creates a Publisher writing through sink.
func NewPublisher(sink provider.Sink[kafka.Message], log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &KafkaPublisher{sink: sink, log: log.WithComponent("kafka.publisher")}
}

// Publish writes the event keyed by its subject, falling back to its ID.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event kafka.Event) error {
	msg, err := event.ToMessage(topic)
	if err != nil {
		return err
	}
	if err := p.sink.Send(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.log.Debug("event published", logger.Fields(
		"topic", topic,
		"type", event.Type,
		"key", msg.Key,
	))
	return nil
}

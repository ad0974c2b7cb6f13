package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Message is a single record handed to the producer.
type Message struct {
	Key       string            `json:"key"`
	Value     []byte            `json:"value"`
	Topic     string            `json:"topic"`
	Timestamp time.Time         `json:"timestamp"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Event is the envelope for every session event on the stream.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	ContentType string         `json:"content_type"`
	Version     string         `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
	// Subject is the partition key; session events use the session ID so a
	// session's events stay ordered.
	Subject string `json:"subject,omitempty"`
}

// NewEvent builds an event envelope around data, which must marshal to a JSON
// object.
func NewEvent(eventType, source string, data any, subject ...string) (Event, error) {
	payload, err := toMap(data)
	if err != nil {
		return Event{}, fmt.Errorf("event %s payload: %w", eventType, err)
	}
	e := Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Source:      source,
		ContentType: "application/json",
		Version:     "1.0",
		Timestamp:   time.Now().UTC(),
		Data:        payload,
	}
	if len(subject) > 0 {
		e.Subject = subject[0]
	}
	return e, nil
}

func toMap(data any) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	if m, ok := data.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseData decodes the event payload into v.
func (e Event) ParseData(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ToJSON marshals the event.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToMessage wraps the marshaled event as a record for topic, keyed by the
// subject or the event ID.
func (e Event) ToMessage(topic string) (Message, error) {
	data, err := e.ToJSON()
	if err != nil {
		return Message{}, fmt.Errorf("marshal event: %w", err)
	}
	key := e.Subject
	if key == "" {
		key = e.ID
	}
	return Message{
		Key:       key,
		Value:     data,
		Topic:     topic,
		Timestamp: e.Timestamp,
		Headers: map[string]string{
			"event-id":     e.ID,
			"event-type":   e.Type,
			"event-source": e.Source,
			"content-type": e.ContentType,
		},
	}, nil
}

// ToKafkaMessage converts the Message to a kafka-go record.
func (m Message) ToKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Key:     []byte(m.Key),
		Value:   m.Value,
		Topic:   m.Topic,
		Time:    m.Timestamp,
		Headers: headers,
	}
}

// FromKafkaMessage converts a kafka-go record to a Message.
func FromKafkaMessage(msg kafka.Message) Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Topic:     msg.Topic,
		Timestamp: msg.Time,
		Headers:   headers,
	}
}

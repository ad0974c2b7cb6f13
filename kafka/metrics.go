package kafka

import (
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// WriterMetrics are the event writer counters since the previous
// snapshot; kafka-go resets them on every read.
type WriterMetrics struct {
	Topic    string `json:"topic,omitempty"`
	Writes   int64  `json:"writes"`
	Messages int64  `json:"messages"`
	Bytes    int64  `json:"bytes"`
	Errors   int64  `json:"errors"`
	Retries  int64  `json:"retries"`
	// Write latencies in milliseconds.
	AvgWriteTime float64 `json:"avg_write_time_ms"`
	MaxWriteTime float64 `json:"max_write_time_ms"`
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func CollectWriterMetrics(s kafkago.WriterStats) WriterMetrics {
	return WriterMetrics{
		Topic:        s.Topic,
		Writes:       s.Writes,
		Messages:     s.Messages,
		Bytes:        s.Bytes,
		Errors:       s.Errors,
		Retries:      s.Retries,
		AvgWriteTime: millis(s.WriteTime.Avg),
		MaxWriteTime: millis(s.WriteTime.Max),
	}
}

// Failing is true when the window saw errors and no delivered event.
func (m WriterMetrics) Failing() bool { return m.Errors > 0 && m.Messages == 0 }

func (m WriterMetrics) String() string {
	return fmt.Sprintf("%d events in %d writes, %d errors, %d retries", m.Messages, m.Writes, m.Errors, m.Retries)
}

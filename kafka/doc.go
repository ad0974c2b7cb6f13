// Package kafka streams recording session events to Kafka.
//
// Each transcript entry and each session start/completion is wrapped in an
// Event envelope keyed by the session ID, so all events of one session land
// on the same partition in order.
//
//   - Component: owns the producer lifecycle and broker health checks
//   - kafka/producer: segmentio/kafka-go writer with TLS/SASL, retries and
//     a provider.Sink adapter
//
// Configuration:
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  topic: minutes.events
package kafka

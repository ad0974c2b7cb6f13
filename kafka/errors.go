package kafka

import (
	"errors"
	"net"
	"net/http"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	apperrors "github.com/kbukum/minutes/errors"
)

type errClass int

const (
	classUnknown errClass = iota
	classConnection
	classTransient
	classRejected
)

// Brokers answer with protocol codes; errors that lost their type on the way
// (wrapped in strings by the writer) are matched on their text.
var errPatterns = []struct {
	text  string
	class errClass
}{
	{"connection refused", classConnection},
	{"connection reset", classConnection},
	{"connection closed", classConnection},
	{"broken pipe", classConnection},
	{"i/o timeout", classConnection},
	{"no route to host", classConnection},
	{"network is unreachable", classConnection},
	{"network exception", classConnection},
	{"broker not available", classConnection},
	{"leader not available", classConnection},
	{"dial tcp", classConnection},
	{"message too large", classRejected},
	{"invalid topic", classRejected},
	{"invalid partition", classRejected},
	{"unknown topic", classRejected},
	{"authorization failed", classRejected},
	{"temporary", classTransient},
	{"request timed out", classTransient},
	{"not enough replicas", classTransient},
}

func classify(err error) errClass {
	if err == nil {
		return classUnknown
	}

	var code kafkago.Error
	if errors.As(err, &code) {
		switch code {
		case kafkago.MessageSizeTooLarge, kafkago.InvalidTopic, kafkago.UnknownTopicOrPartition, kafkago.TopicAuthorizationFailed:
			return classRejected
		case kafkago.LeaderNotAvailable, kafkago.NotLeaderForPartition:
			return classConnection
		}
		if code.Temporary() {
			return classTransient
		}
	}
	var batch kafkago.WriteErrors
	if errors.As(err, &batch) {
		for _, e := range batch {
			if e != nil {
				return classify(e)
			}
		}
	}
	var op *net.OpError
	if errors.As(err, &op) {
		return classConnection
	}

	msg := strings.ToLower(err.Error())
	for _, p := range errPatterns {
		if strings.Contains(msg, p.text) {
			return p.class
		}
	}
	return classUnknown
}

// IsConnectionError reports whether err means the brokers were not reached.
func IsConnectionError(err error) bool { return classify(err) == classConnection }

// IsRetryableError reports whether writing again may succeed.
func IsRetryableError(err error) bool {
	c := classify(err)
	return c == classConnection || c == classTransient
}

// IsNonRetryableError reports whether the brokers refused the message itself.
func IsNonRetryableError(err error) bool { return classify(err) == classRejected }

// FromKafka converts a write error into an AppError tagged with the topic.
func FromKafka(err error, topic string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case classConnection:
		return apperrors.ServiceUnavailable("event stream").WithCause(err).WithDetail("topic", topic)
	case classRejected:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "The event stream rejected the message.", http.StatusBadRequest).
			WithCause(err).WithDetail("topic", topic)
	case classTransient:
		return apperrors.ExternalServiceError("kafka", err).WithDetail("topic", topic)
	}
	return apperrors.Internal(err)
}

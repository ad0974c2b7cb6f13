package kafka

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func TestClassify(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}
	tests := []struct {
		name string
		err  error
		want errClass
	}{
		{"nil", nil, classUnknown},
		{"unrelated", errors.New("weird"), classUnknown},
		{"dial op error", fmt.Errorf("write: %w", dial), classConnection},
		{"refused text", errors.New("dial tcp 10.0.0.1:9092: connection refused"), classConnection},
		{"broker text", errors.New("Broker Not Available"), classConnection},
		{"leader code", kafkago.LeaderNotAvailable, classConnection},
		{"size code", fmt.Errorf("produce: %w", kafkago.MessageSizeTooLarge), classRejected},
		{"topic auth code", kafkago.TopicAuthorizationFailed, classRejected},
		{"unknown topic text", errors.New("unknown topic or partition"), classRejected},
		{"timeout code", kafkago.RequestTimedOut, classTransient},
		{"replicas text", errors.New("not enough replicas"), classTransient},
		{"batch", kafkago.WriteErrors{nil, kafkago.MessageSizeTooLarge}, classRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	refused := errors.New("connection refused")
	if !IsConnectionError(refused) || !IsRetryableError(refused) || IsNonRetryableError(refused) {
		t.Error("connection errors are retryable")
	}
	tooLarge := errors.New("message too large")
	if IsRetryableError(tooLarge) || !IsNonRetryableError(tooLarge) {
		t.Error("rejected messages are not retryable")
	}
	if IsRetryableError(nil) || IsConnectionError(nil) || IsNonRetryableError(nil) {
		t.Error("nil classified")
	}
}

func TestFromKafka(t *testing.T) {
	if FromKafka(nil, "t") != nil {
		t.Fatal("nil error converted")
	}

	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"connection", errors.New("dial tcp 10.0.0.1:9092: connection refused"), http.StatusServiceUnavailable, true},
		{"too large", kafkago.MessageSizeTooLarge, http.StatusBadRequest, false},
		{"transient", errors.New("request timed out"), http.StatusBadGateway, true},
		{"unknown", errors.New("weird"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromKafka(tt.err, "minutes.events")
			if appErr.HTTPStatus != tt.status || appErr.Retryable != tt.retryable {
				t.Errorf("status %d retryable %v, want %d %v", appErr.HTTPStatus, appErr.Retryable, tt.status, tt.retryable)
			}
			if !errors.Is(appErr, tt.err) {
				t.Error("cause lost")
			}
		})
	}

	if got := FromKafka(errors.New("broker not available"), "minutes.events"); got.Details["topic"] != "minutes.events" {
		t.Errorf("topic detail = %v", got.Details["topic"])
	}
}

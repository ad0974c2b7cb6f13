package kafka

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kbukum/minutes/component"
	"github.com/kbukum/minutes/logger"
)

type stubWriter struct {
	closes  atomic.Int32
	metrics WriterMetrics
}

func (w *stubWriter) Close() error {
	w.closes.Add(1)
	return nil
}

func (w *stubWriter) Metrics() WriterMetrics { return w.metrics }

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	comp := NewComponent(Config{}, logger.NewNop())
	w := &stubWriter{metrics: WriterMetrics{Writes: 1, Messages: 3}}
	comp.SetProducer(w)

	if comp.Name() != "kafka" || comp.Producer() != w {
		t.Fatalf("name %q, producer %v", comp.Name(), comp.Producer())
	}
	for range 2 {
		if err := comp.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	for range 2 {
		if err := comp.Stop(ctx); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	}
	if n := w.closes.Load(); n != 1 {
		t.Errorf("writer closed %d times", n)
	}
	if comp.Producer() != nil {
		t.Error("producer kept after Stop")
	}
}

func TestComponentStopWithoutStartLeavesWriterOpen(t *testing.T) {
	comp := NewComponent(Config{}, nil)
	w := &stubWriter{}
	comp.SetProducer(w)
	if err := comp.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w.closes.Load() != 0 {
		t.Error("writer closed by a component that never started")
	}
}

func TestComponentDescribe(t *testing.T) {
	comp := NewComponent(Config{Brokers: []string{"b1:9092", "b2:9092"}, Topic: "meetings"}, nil)
	if strings.Contains(comp.Describe().Details, "producer=yes") {
		t.Error("producer reported before SetProducer")
	}
	comp.SetProducer(&stubWriter{})

	desc := comp.Describe()
	if desc.Name != "Kafka" || desc.Type != "kafka" {
		t.Errorf("Describe() = %+v", desc)
	}
	for _, want := range []string{"b1:9092", "topic=meetings", "producer=yes"} {
		if !strings.Contains(desc.Details, want) {
			t.Errorf("details %q missing %q", desc.Details, want)
		}
	}
}

func TestComponentHealth(t *testing.T) {
	ctx := context.Background()
	comp := NewComponent(Config{Brokers: []string{"127.0.0.1:1"}}, logger.NewNop())
	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy || h.Message != "kafka not started" {
		t.Errorf("before start: %+v", h)
	}

	_ = comp.Start(ctx)
	defer comp.Stop(ctx)
	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy || !strings.Contains(h.Message, "unreachable") {
		t.Errorf("unreachable broker: %+v", h)
	}
}

func TestComponentDescribeMasksSASLPassword(t *testing.T) {
	comp := NewComponent(Config{
		Brokers:       []string{"b1:9092"},
		Topic:         "meetings",
		EnableSASL:    true,
		SASLMechanism: "SCRAM-SHA-512",
		Username:      "minutes",
		Password:      "s3cr3t-pass",
	}, nil)
	d := comp.Describe().Details
	if strings.Contains(d, "s3cr3t") {
		t.Fatalf("password leaked into %q", d)
	}
	for _, want := range []string{"sasl=SCRAM-SHA-512", "user=minutes", "password=***"} {
		if !strings.Contains(d, want) {
			t.Errorf("details %q missing %q", d, want)
		}
	}
}

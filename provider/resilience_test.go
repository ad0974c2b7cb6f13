package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/resilience"
)

// flaky fails its first n calls.
type flaky struct {
	backend
	n int
}

func (f *flaky) Execute(ctx context.Context, clip string) (string, error) {
	if f.calls < f.n {
		f.calls++
		return "", errUpstream
	}
	return f.backend.Execute(ctx, clip)
}

func quickRetry(attempts int) *resilience.RetryConfig {
	return &resilience.RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestWithResilienceEmptyIsIdentity(t *testing.T) {
	b := &backend{name: "openai"}
	if got := provider.WithResilience[string, string](b, provider.ResilienceConfig{}); got != provider.RequestResponse[string, string](b) {
		t.Error("empty config wrapped the backend")
	}
}

func TestWithResilienceRetry(t *testing.T) {
	f := &flaky{backend: backend{name: "whisper"}, n: 2}
	p := provider.WithResilience[string, string](f, provider.ResilienceConfig{Retry: quickRetry(3)})
	out, err := p.Execute(context.Background(), "clip")
	if err != nil || out != "CLIP" {
		t.Fatalf("Execute = %q, %v", out, err)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d", f.calls)
	}

	f = &flaky{backend: backend{name: "whisper"}, n: 5}
	p = provider.WithResilience[string, string](f, provider.ResilienceConfig{Retry: quickRetry(2)})
	if _, err := p.Execute(context.Background(), "clip"); !errors.Is(err, errUpstream) {
		t.Fatalf("want last upstream error, got %v", err)
	}
}

func TestWithResilienceSkipsNonRetryable(t *testing.T) {
	b := &backend{name: "openai", fail: apperrors.InvalidInput("file", "unsupported audio format")}
	p := provider.WithResilience[string, string](b, provider.ResilienceConfig{Retry: quickRetry(4)})
	if _, err := p.Execute(context.Background(), "clip"); err == nil {
		t.Fatal("expected error")
	}
	if b.calls != 1 {
		t.Errorf("calls = %d", b.calls)
	}
}

func TestWithResilienceOpenCircuit(t *testing.T) {
	b := &backend{name: "openai", fail: errUpstream}
	p := provider.WithResilience[string, string](b, provider.ResilienceConfig{
		CircuitBreaker: &resilience.CircuitBreakerConfig{Name: "openai", MaxFailures: 2, Timeout: time.Hour},
		Retry:          quickRetry(2),
	})

	// One Execute is one breaker failure however many retries it made.
	for i := 0; i < 2; i++ {
		if _, err := p.Execute(context.Background(), "clip"); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	calls := b.calls
	_, err := p.Execute(context.Background(), "clip")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeServiceUnavailable || !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v", err)
	}
	if b.calls != calls {
		t.Error("backend called through an open circuit")
	}
}

type blocking struct {
	backend
	entered chan struct{}
	release chan struct{}
}

func (b *blocking) Execute(context.Context, string) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return "done", nil
}

func TestWithResilienceBulkheadFull(t *testing.T) {
	b := &blocking{backend: backend{name: "whisper"}, entered: make(chan struct{}), release: make(chan struct{})}
	p := provider.WithResilience[string, string](b, provider.ResilienceConfig{
		Bulkhead: &resilience.BulkheadConfig{MaxConcurrent: 1},
	})

	done := make(chan error, 1)
	go func() {
		_, err := p.Execute(context.Background(), "first")
		done <- err
	}()
	<-b.entered

	_, err := p.Execute(context.Background(), "second")
	close(b.release)
	if appErr, ok := apperrors.AsAppError(err); !ok || appErr.Code != apperrors.ErrCodeServiceUnavailable {
		t.Fatalf("err = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("first call: %v", err)
	}
}

type outbox struct {
	fails int
	sent  []string
}

func (o *outbox) Name() string                     { return "chat" }
func (o *outbox) IsAvailable(context.Context) bool { return true }

func (o *outbox) Send(_ context.Context, line string) error {
	if o.fails > 0 {
		o.fails--
		return errUpstream
	}
	o.sent = append(o.sent, line)
	return nil
}

func TestWithSinkResilience(t *testing.T) {
	o := &outbox{fails: 1}
	s := provider.WithSinkResilience[string](o, provider.ResilienceConfig{Retry: quickRetry(2)})
	if err := s.Send(context.Background(), "Alice: こんにちは"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(o.sent) != 1 || s.Name() != "chat" {
		t.Errorf("sent = %v name = %s", o.sent, s.Name())
	}
}

package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/resilience"
)

// ResilienceConfig picks the policies guarding a backend. Nil policies are
// off; the zero value leaves the backend untouched.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	Bulkhead       *resilience.BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// IsEmpty reports whether no policy is set.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.Bulkhead == nil
}

// guard holds the built policies of one wrapped backend. A call passes the
// bulkhead, then the breaker, then the retry loop.
type guard struct {
	limit   *resilience.Bulkhead
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
}

func newGuard(cfg ResilienceConfig) *guard {
	g := &guard{retry: cfg.Retry}
	if cfg.Bulkhead != nil {
		g.limit = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	if cfg.CircuitBreaker != nil {
		g.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return g
}

// guarded runs fn behind g. Errors from fn come back as they are; a call
// turned away by the bulkhead or breaker gets a ServiceUnavailable or
// Timeout AppError.
func guarded[T any](ctx context.Context, g *guard, fn func() (T, error)) (T, error) {
	var (
		out    T
		err    error
		called bool
	)
	step := func() error {
		called = true
		if g.retry != nil {
			out, err = resilience.Retry(ctx, *g.retry, fn)
		} else {
			out, err = fn()
		}
		return err
	}
	if g.breaker != nil {
		inner := step
		step = func() error { return g.breaker.Execute(inner) }
	}
	if g.limit != nil {
		inner := step
		step = func() error { return g.limit.Execute(ctx, inner) }
	}

	if gateErr := step(); gateErr != nil && !called {
		return out, rejected(gateErr)
	}
	return out, err
}

func rejected(err error) error {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("provider").WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("provider").WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("deadline exceeded").WithCause(err)
	}
	return err
}

// WithResilience puts p behind the configured policies.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &guardedRR[I, O]{RequestResponse: p, g: newGuard(cfg)}
}

// WithSinkResilience puts a Sink behind the configured policies.
func WithSinkResilience[I any](p Sink[I], cfg ResilienceConfig) Sink[I] {
	if cfg.IsEmpty() {
		return p
	}
	return &guardedSink[I]{Sink: p, g: newGuard(cfg)}
}

type guardedRR[I, O any] struct {
	RequestResponse[I, O]
	g *guard
}

func (r *guardedRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return guarded(ctx, r.g, func() (O, error) { return r.RequestResponse.Execute(ctx, input) })
}

type guardedSink[I any] struct {
	Sink[I]
	g *guard
}

func (s *guardedSink[I]) Send(ctx context.Context, input I) error {
	_, err := guarded(ctx, s.g, func() (struct{}, error) { return struct{}{}, s.Sink.Send(ctx, input) })
	return err
}

package provider

import (
	"context"
	"slices"
)

// Provider is a named backend that can say whether it is usable right now.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// RequestResponse answers one input with one output: a speech-to-text
// upload, a directory lookup, a chat completion.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Sink takes an input and only acknowledges it: a webhook post, an event.
type Sink[I any] interface {
	Provider
	Send(ctx context.Context, input I) error
}

// Factory builds a backend from its settings, as decoded from config.
type Factory[T Provider] func(settings map[string]any) (T, error)

// Func is a RequestResponse backed by a function. It is available when Fn
// is set.
type Func[I, O any] struct {
	ID string
	Fn func(ctx context.Context, input I) (O, error)
}

func (f Func[I, O]) Name() string                     { return f.ID }
func (f Func[I, O]) IsAvailable(context.Context) bool { return f.Fn != nil }

func (f Func[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.Fn(ctx, input)
}

// Middleware decorates a RequestResponse.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain joins middlewares so that the first one listed sees each call first.
func Chain[I, O any](mws ...Middleware[I, O]) Middleware[I, O] {
	return func(p RequestResponse[I, O]) RequestResponse[I, O] {
		for _, mw := range slices.Backward(mws) {
			p = mw(p)
		}
		return p
	}
}

package bootstrap

import (
	"context"
	"fmt"
)

// Hook runs at a fixed point of the App lifecycle. A failing start or
// ready hook aborts Run.
type Hook func(ctx context.Context) error

// OnStart hooks run once every component has started, before OnConfigure
// callbacks.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnReady hooks run after the ready check passed.
func (a *App[C]) OnReady(hooks ...Hook) { a.onReady = append(a.onReady, hooks...) }

// OnStop hooks run first during shutdown, while components are still up.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

// runHooks stops at the first failure.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i := range hooks {
		if err := hooks[i](ctx); err != nil {
			return fmt.Errorf("hook %d of %d: %w", i+1, len(hooks), err)
		}
	}
	return nil
}

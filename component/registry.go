package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/minutes/logger"
)

// DefaultStopTimeout bounds each component's Stop during StopAll.
const DefaultStopTimeout = 10 * time.Second

type entry struct {
	c           Component
	started     bool
	stopTimeout time.Duration
}

// Registry starts components in registration order and stops them in
// reverse, so dependencies are registered first.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	log     *logger.Logger
}

// NewRegistry creates an empty registry. A nil log discards output.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{log: log.WithComponent("components")}
}

func (r *Registry) find(name string) *entry {
	i := slices.IndexFunc(r.entries, func(e *entry) bool { return e.c.Name() == name })
	if i < 0 {
		return nil
	}
	return r.entries[i]
}

// Register appends c. Names are unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(c.Name()) != nil {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.entries = append(r.entries, &entry{c: c, stopTimeout: DefaultStopTimeout})
	return nil
}

// SetStopTimeout gives the named component longer or shorter than
// DefaultStopTimeout to stop. The session needs it: a drain waits on
// transcription. Unknown names are ignored.
func (r *Registry) SetStopTimeout(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.find(name); e != nil && d > 0 {
		e.stopTimeout = d
	}
}

// StartAll starts, in registration order, the components not started yet,
// so it can run again after more were registered. It stops at the first
// failure.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.c.Name()
		if err := e.c.Start(ctx); err != nil {
			r.log.Error("component failed to start", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, name))
	}
	return nil
}

// StopAll stops the started components in reverse order, each within its
// stop timeout, and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, e := range slices.Backward(r.entries) {
		if !e.started {
			continue
		}
		e.started = false
		name := e.c.Name()

		stopCtx, cancel := context.WithTimeout(ctx, e.stopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Error("component failed to stop", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
			continue
		}
		r.log.Info("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll asks every registered component, started or not.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.c.Health(ctx)
	}
	return out
}

// Overall is the worst status among results, healthy when there are none.
func Overall(results []Health) HealthStatus {
	worst := StatusHealthy
	for _, h := range results {
		if h.Status.severity() > worst.severity() {
			worst = h.Status
		}
	}
	if worst.severity() == StatusUnhealthy.severity() {
		return StatusUnhealthy
	}
	return worst
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e := r.find(name); e != nil {
		return e.c
	}
	return nil
}

// All lists the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.c
	}
	return out
}

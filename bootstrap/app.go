package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/minutes/component"
	"github.com/kbukum/minutes/logger"
)

// DefaultGracefulTimeout bounds the whole shutdown sequence.
const DefaultGracefulTimeout = 15 * time.Second

// App runs the components of one process from start to graceful stop. Cfg
// keeps its concrete type inside OnConfigure callbacks.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp validates cfg and sets up logging from its service section unless
// WithLogger is given.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	log := o.log
	if log == nil {
		logger.Init(&base.Logging)
		log = logger.GetGlobalLogger()
	}

	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Logger:          log,
		Components:      component.NewRegistry(log),
		Summary:         NewSummary(base.Name, base.Version, o.summary),
		gracefulTimeout: o.grace,
	}, nil
}

func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure adds a callback run once the registered components are up.
// Components it registers start right after, and stop before the ones
// they were built on.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck fails listing every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		s := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			s += " (" + h.Message + ")"
		}
		bad = append(bad, s)
	}
	if len(bad) > 0 {
		return fmt.Errorf("unhealthy components: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Run starts everything, waits for SIGINT, SIGTERM or the end of ctx, then
// stops everything. A failed start stops whatever did start.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Error("cleanup after failed startup", logger.ErrorFields("stop", stopErr))
		}
		return err
	}
	a.WaitForSignal(ctx)
	return a.stop()
}

func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"start components", a.Components.StartAll},
		{"on-start hooks", func(ctx context.Context) error { return runHooks(ctx, a.onStart) }},
		{"configure", a.configure},
		{"start configured components", a.Components.StartAll},
	}
	for _, p := range phases {
		if err := p.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.MergeWithError(nil, err))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("on-ready hooks: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(began))
	a.Summary.Display(ctx, a.Components)
	return nil
}

func (a *App[C]) configure(ctx context.Context) error {
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives, returning it, or
// until ctx is done, returning nil.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		a.Logger.Info("shutdown requested", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context done, shutting down")
		return nil
	}
}

// Shutdown stops the app for callers that drive the lifecycle without Run.
func (a *App[C]) Shutdown() error {
	return a.stop()
}

// stop runs the on-stop hooks, then stops the components, all within the
// graceful timeout.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	a.Logger.Info("shutting down", logger.Fields("timeout", a.gracefulTimeout.String()))

	err := errors.Join(runHooks(ctx, a.onStop), a.Components.StopAll(ctx))
	if err != nil {
		a.Logger.Error("shutdown finished with errors", logger.MergeWithError(nil, err))
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}

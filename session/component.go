package session

import (
	"context"
	"fmt"

	"github.com/kbukum/minutes/component"
)

// Component adapts a Controller to the component lifecycle so shutdown
// drains an active session.
type Component struct {
	ctrl *Controller
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps ctrl.
func NewComponent(ctrl *Controller) *Component {
	return &Component{ctrl: ctrl}
}

// Name returns the component name.
func (c *Component) Name() string { return "session" }

// Start is a no-op; sessions are started through the control API.
func (c *Component) Start(context.Context) error { return nil }

// Stop drains the active session. If ctx ends first the drain keeps running
// in the background and ctx's error is returned.
func (c *Component) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ctrl.Stop(ctx)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session drain: %w", ctx.Err())
	}
}

// Health reports the controller as healthy; an active session is noted.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if s, ok := c.ctrl.Current(); ok {
		h.Message = "recording " + s.ID
	}
	return h
}

// Describe returns summary info for the startup display.
func (c *Component) Describe() component.Description {
	cfg := c.ctrl.opts.Capture
	return component.Description{
		Name:    "Session Controller",
		Type:    "session",
		Details: fmt.Sprintf("recordings=%s silence=%s connect_timeout=%s", cfg.RecordingDir, cfg.Silence, cfg.ConnectTimeout),
	}
}

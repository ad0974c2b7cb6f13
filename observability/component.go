package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/minutes/component"
	"github.com/kbukum/minutes/logger"
)

// Component installs the OTLP meter and tracer providers for the process
// lifetime. Register it first so it is stopped last and flushes what the
// other components recorded while draining.
type Component struct {
	cfg     Config
	service string
	version string

	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the telemetry component. A disabled config leaves the
// global no-op providers in place.
func NewComponent(cfg Config, serviceName, version string) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, service: serviceName, version: version}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start installs the exporters.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	res, err := newResource(c.service, c.version, c.cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability resource: %w", err)
	}
	mp, err := newMeterProvider(ctx, c.cfg, res)
	if err != nil {
		return err
	}
	tp, err := newTracerProvider(ctx, c.cfg, res)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return err
	}
	logger.Info("telemetry exporting", logger.Fields(
		"endpoint", c.cfg.Endpoint,
		"sample_rate", c.cfg.SampleRate,
		"interval", c.cfg.Interval.String(),
	))
	c.mp, c.tp = mp, tp
	return nil
}

// Stop flushes and shuts down both providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health is always healthy; export failures are reported by the SDK.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe returns summary info for the startup display.
func (c *Component) Describe() component.Description {
	if !c.cfg.Enabled {
		return component.Description{Name: "Telemetry", Type: "otlp", Details: "disabled"}
	}
	return component.Description{
		Name:    "Telemetry",
		Type:    "otlp",
		Details: fmt.Sprintf("%s sample_rate=%.2f interval=%s", c.cfg.Endpoint, c.cfg.SampleRate, c.cfg.Interval),
	}
}

package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/minutes/component"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/util"
)

// Component opens the configured archive backend on Start.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage is nil while disabled or stopped.
func (c *Component) Storage() Storage {
	return c.storage
}

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(_ context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	s, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// healthKey is probed on every health check. It need not exist.
const healthKey = ".health"

// Health probes the backend with an existence check, which for S3 is a
// HEAD request against the bucket.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "disabled"
	case c.storage == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	default:
		if _, err := c.storage.Exists(ctx, Key(c.cfg.Prefix, healthKey)); err != nil {
			h.Status, h.Message = component.StatusUnhealthy, err.Error()
		}
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s prefix=%s", c.cfg.Provider, c.cfg.Prefix)
	switch c.cfg.Provider {
	case ProviderS3:
		details += fmt.Sprintf(" bucket=%s", c.cfg.Bucket)
		if c.cfg.AccessKey != "" {
			details += " access_key=" + util.MaskSecret(c.cfg.AccessKey, 4)
		}
	case ProviderLocal:
		details += fmt.Sprintf(" path=%s", c.cfg.BasePath)
	}
	if !c.cfg.Enabled {
		details += " (disabled)"
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}

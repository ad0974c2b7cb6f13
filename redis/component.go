package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/minutes/component"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/util"
)

// Component owns the Client for the lifetime of the process.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client is nil until Start succeeds.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start fails when the server does not answer PING, so a misconfigured
// cache is caught before a session starts.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return err
	}
	c.client = client
	c.log.Info("redis connected", logger.Fields("addr", c.cfg.Addr, "db", c.cfg.DB))
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

// Health is a PING. Pool timeouts mark the cache degraded since lookups
// then fall through to the directory.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	if c.client == nil {
		h.Message = "not started"
		return h
	}
	if err := c.client.Ping(ctx); err != nil {
		h.Message = err.Error()
		return h
	}
	st := c.client.Stats()
	h.Status = component.StatusHealthy
	h.Message = fmt.Sprintf("conns=%d idle=%d", st.TotalConns, st.IdleConns)
	if st.Timeouts > 0 {
		h.Status = component.StatusDegraded
		h.Message += fmt.Sprintf(" timeouts=%d", st.Timeouts)
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s db=%d pool=%d", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize)
	if c.cfg.Password != "" {
		details += " password=" + util.MaskSecret(c.cfg.Password, 0)
	}
	return component.Description{Name: "Redis", Type: "redis", Details: details}
}

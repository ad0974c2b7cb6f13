package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/minutes/component"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/util"
)

// Writer is the event producer as the component sees it.
type Writer interface {
	Close() error
	Metrics() WriterMetrics
}

// Component closes the event producer on shutdown and probes the brokers
// for health.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.Mutex
	writer  Writer
	running bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the kafka component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("kafka")}
}

// SetProducer hands the producer to the component. Call it before Start.
func (c *Component) SetProducer(w Writer) {
	c.mu.Lock()
	c.writer = w
	c.mu.Unlock()
}

// Producer returns the producer, or nil once stopped.
func (c *Component) Producer() Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writer
}

func (c *Component) Name() string { return "kafka" }

// Start only flips the state: the producer dials on first write.
func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.running = true
		c.log.Info("kafka component started", logger.Fields("brokers", c.cfg.Brokers, "topic", c.cfg.Topic))
	}
	return nil
}

// Stop flushes and closes the producer.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	w := c.writer
	wasRunning := c.running
	c.writer, c.running = nil, false
	c.mu.Unlock()

	if !wasRunning || w == nil {
		return nil
	}
	c.log.Info("kafka producer closing", logger.Fields("stats", w.Metrics().String()))
	return w.Close()
}

// Health dials the first broker and asks it for cluster metadata. A healthy
// report carries the writer counters.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.Lock()
	running, w, cfg := c.running, c.writer, c.cfg
	c.mu.Unlock()

	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	switch {
	case !running:
		h.Message = "kafka not started"
		return h
	case len(cfg.Brokers) == 0:
		h.Message = "no brokers configured"
		return h
	}

	dialer, err := CreateDialer(&cfg)
	if err != nil {
		h.Message = fmt.Sprintf("dialer: %v", err)
		return h
	}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		h.Message = fmt.Sprintf("broker unreachable: %v", err)
		return h
	}
	defer conn.Close()
	if _, err := conn.Brokers(); err != nil {
		h.Status, h.Message = component.StatusDegraded, fmt.Sprintf("broker metadata: %v", err)
		return h
	}

	h.Status = component.StatusHealthy
	if w != nil {
		m := w.Metrics()
		h.Message = m.String()
		if m.Failing() {
			h.Status = component.StatusDegraded
		}
	}
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	c.mu.Lock()
	defer c.mu.Unlock()
	details := fmt.Sprintf("brokers=%v topic=%s", c.cfg.Brokers, c.cfg.Topic)
	if c.cfg.EnableSASL {
		details += fmt.Sprintf(" sasl=%s user=%s password=%s",
			c.cfg.SASLMechanism, c.cfg.Username, util.MaskSecret(c.cfg.Password, 0))
	}
	if c.writer != nil {
		details += " producer=yes"
	}
	return component.Description{Name: "Kafka", Type: "kafka", Details: details}
}

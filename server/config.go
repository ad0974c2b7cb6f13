package server

import (
	"fmt"
	"time"
)

// Config is the control API listener.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	// Port 0 picks a free port; Addr reports it once listening.
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxBodySize  string        `yaml:"max_body_size" mapstructure:"max_body_size"`
}

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	// Stopping a session answers only after the drain.
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = time.Minute
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "64KB"
	}
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"idle_timeout":  c.IdleTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %s)", name, d)
		}
	}
	return nil
}

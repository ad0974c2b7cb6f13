package redis

import (
	"fmt"
	"time"
)

// Config holds Redis connection configuration.
type Config struct {
	// Enabled controls whether the Redis component is active. When false the
	// speaker label cache is skipped.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Addr is the Redis server address (host:port).
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// ConnMaxIdleTime closes connections idle for longer. 0 keeps the go-redis default.
	ConnMaxIdleTime time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("redis.pool_size must be > 0")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis.db must not be negative (got: %d)", c.DB)
	}
	return nil
}

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/minutes/logger"
)

// Environments a deployment may declare.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig is the part of every config file that is not about
// capture: identity, environment and logging. Binaries embed it with
// `mapstructure:",squash"`.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig is promoted through embedding, which is how bootstrap
// reaches the shared fields.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults fills the environment and the logging block. Development
// turns Debug on.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	c.Debug = c.Debug || c.Environment == "development"
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("config.name is required")
	case !slices.Contains(Environments, c.Environment):
		return fmt.Errorf("config.environment must be one of [%s] (got: %q)", strings.Join(Environments, ", "), c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

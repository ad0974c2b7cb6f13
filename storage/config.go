package storage

import (
	"cmp"
	"errors"
	"fmt"
)

// Backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Config selects where finished notes pages are archived.
type Config struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider string `yaml:"provider" mapstructure:"provider"` // local or s3
	// Prefix is prepended to every key, "notes/" by default.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// local
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// s3 and S3-compatible stores. Endpoint implies path-style addressing.
	// Without keys the default AWS credential chain is used.
	Bucket         string `yaml:"bucket" mapstructure:"bucket"`
	Region         string `yaml:"region" mapstructure:"region"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key"`
	// PublicURL replaces the bucket address in the links posted to chat.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
}

func (c *Config) ApplyDefaults() {
	c.Provider = cmp.Or(c.Provider, ProviderLocal)
	c.Prefix = cmp.Or(c.Prefix, "notes/")
	c.BasePath = cmp.Or(c.BasePath, "./archive")
	c.Region = cmp.Or(c.Region, "us-east-1")
}

// Validate reports every problem of the selected backend at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}
	switch c.Provider {
	case ProviderLocal:
		check(c.BasePath != "", "base_path is required for local provider")
	case ProviderS3:
		check(c.Bucket != "", "bucket is required for s3 provider")
		check(c.Region != "", "region is required for s3 provider")
		check((c.AccessKey == "") == (c.SecretKey == ""), "access_key and secret_key must be set together")
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if len(errs) > 0 {
		return fmt.Errorf("storage: invalid %s config: %w", c.Provider, errors.Join(errs...))
	}
	return nil
}

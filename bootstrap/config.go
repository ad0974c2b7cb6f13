package bootstrap

import "github.com/kbukum/minutes/config"

// Config is what NewApp accepts. Embedding config.ServiceConfig provides
// GetServiceConfig; the embedding type supplies ApplyDefaults and Validate
// for its own sections and calls the embedded ones.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

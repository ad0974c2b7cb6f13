package speaker

import (
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/redis"
)

// Config is the speaker section of the service configuration.
type Config struct {
	// Names maps speaker IDs to fixed labels and wins over the directory.
	Names     map[string]string `yaml:"names" mapstructure:"names"`
	Directory DirectoryConfig   `yaml:"directory" mapstructure:"directory"`
	// CacheTTL applies when a Redis client is available.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// New composes the configured resolvers: static names first, then the
// directory behind the Redis cache when both exist. It returns nil when
// nothing is configured, which Resolve treats as "always fall back".
func New(cfg Config, client *redis.Client, log *logger.Logger) Resolver {
	var chain []Resolver
	if len(cfg.Names) > 0 {
		chain = append(chain, Static(cfg.Names))
	}
	if cfg.Directory.URL != "" {
		var dir Resolver = NewDirectory(cfg.Directory)
		if client != nil {
			dir = NewCached(dir, client, cfg.CacheTTL, log)
		}
		chain = append(chain, dir)
	}
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	default:
		return First(chain...)
	}
}

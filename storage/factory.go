package storage

import (
	"fmt"
	"sync"

	"github.com/kbukum/minutes/logger"
)

// Factory creates a Storage backend from the shared Config.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a backend factory. Backend packages call it from
// init, so importing storage/local or storage/s3 makes them available to New.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates the backend selected by cfg.Provider.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l := log.WithComponent("storage")
	l.Info("initializing storage", logger.Fields("provider", cfg.Provider))
	return f(cfg, l)
}

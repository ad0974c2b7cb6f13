package speaker

import (
	"context"
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/redis"
)

// DefaultCacheTTL is how long resolved names stay cached.
const DefaultCacheTTL = 24 * time.Hour

// CacheEntry is the cached form of a resolved name.
type CacheEntry struct {
	Name       string    `json:"name"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Cached puts a Redis cache in front of another resolver. Cache failures
// are logged and fall through to the inner resolver.
type Cached struct {
	inner Resolver
	names *redis.Cache[CacheEntry]
	log   *logger.Logger
}

var _ Resolver = (*Cached)(nil)

// NewCached creates a cache over inner using client.
func NewCached(inner Resolver, client *redis.Client, ttl time.Duration, log *logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Cached{
		inner: inner,
		names: redis.NewCache[CacheEntry](client, "minutes:speaker", ttl),
		log:   log.WithComponent("speaker.cache"),
	}
}

// Lookup implements Resolver.
func (c *Cached) Lookup(ctx context.Context, speakerID string) (string, error) {
	entry, ok, err := c.names.Get(ctx, speakerID)
	if err != nil {
		c.log.Warn("speaker cache read failed", logger.MergeWithError(logger.Fields(logger.FieldSpeakerID, speakerID), err))
	} else if ok && entry.Name != "" {
		return entry.Name, nil
	}

	name, err := c.inner.Lookup(ctx, speakerID)
	if err != nil {
		return "", err
	}
	if name != "" {
		if err := c.names.Put(ctx, speakerID, CacheEntry{Name: name, ResolvedAt: time.Now().UTC()}); err != nil {
			c.log.Warn("speaker cache write failed", logger.MergeWithError(logger.Fields(logger.FieldSpeakerID, speakerID), err))
		}
	}
	return name, nil
}

// Forget drops a cached name.
func (c *Cached) Forget(ctx context.Context, speakerID string) error {
	return c.names.Forget(ctx, speakerID)
}

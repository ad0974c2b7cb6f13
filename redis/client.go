package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/provider"
)

// Client is the go-redis client behind the speaker name cache. It doubles
// as a provider.Provider so that the cache can be skipped while Redis is
// down.
type Client struct {
	rdb    *goredis.Client
	log    *logger.Logger
	cfg    Config
	closed atomic.Bool
}

var _ provider.Provider = (*Client)(nil)

func (c Config) options() *goredis.Options {
	return &goredis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		MaxRetries:      c.MaxRetries,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}

// New builds a client without dialing; the pool connects on first use.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return nil, errors.New("redis is disabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	log.Debug("redis client created", logger.Fields("addr", cfg.Addr, "db", cfg.DB, "pool_size", cfg.PoolSize))
	return &Client{rdb: goredis.NewClient(cfg.options()), log: log, cfg: cfg}, nil
}

func (c *Client) Name() string { return "redis" }

// IsAvailable is false once closed or while PING fails.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return !c.closed.Load() && c.Ping(ctx) == nil
}

func (c *Client) Ping(ctx context.Context) error {
	switch pong, err := c.rdb.Ping(ctx).Result(); {
	case err != nil:
		return fmt.Errorf("redis ping: %w", err)
	case pong != "PONG":
		return fmt.Errorf("redis ping: unexpected reply %q", pong)
	}
	return nil
}

// Stats reports the connection pool counters.
func (c *Client) Stats() *goredis.PoolStats { return c.rdb.PoolStats() }

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// GetJSON decodes the value under key into dst. A missing key yields an
// error for which IsMiss is true.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON stores val as JSON. A zero ttl never expires.
func (c *Client) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis encode %q: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Close may be called more than once and on a nil client.
func (c *Client) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.rdb.Close()
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return errors.Is(err, goredis.Nil)
}

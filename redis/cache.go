package redis

import (
	"context"
	"fmt"
	"time"
)

// Cache keeps JSON values of one type under "<namespace>:<key>", each
// expiring ttl after it was written. A zero ttl keeps values forever.
type Cache[V any] struct {
	client    *Client
	namespace string
	ttl       time.Duration
}

// NewCache creates a cache in namespace.
func NewCache[V any](client *Client, namespace string, ttl time.Duration) *Cache[V] {
	return &Cache[V]{client: client, namespace: namespace, ttl: ttl}
}

func (c *Cache[V]) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

// Get returns the value under k. ok is false when there is none.
func (c *Cache[V]) Get(ctx context.Context, k string) (v V, ok bool, err error) {
	err = c.client.GetJSON(ctx, c.key(k), &v)
	if IsMiss(err) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("cache get %q: %w", c.key(k), err)
	}
	return v, true, nil
}

// Put stores v under k, resetting its expiry.
func (c *Cache[V]) Put(ctx context.Context, k string, v V) error {
	if err := c.client.SetJSON(ctx, c.key(k), v, c.ttl); err != nil {
		return fmt.Errorf("cache put %q: %w", c.key(k), err)
	}
	return nil
}

// Forget removes k. Forgetting a missing key is not an error.
func (c *Cache[V]) Forget(ctx context.Context, k string) error {
	if err := c.client.Del(ctx, c.key(k)); err != nil {
		return fmt.Errorf("cache forget %q: %w", c.key(k), err)
	}
	return nil
}

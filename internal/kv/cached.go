package kv

import (
	"context"

	"fintrack/internal/cache"
)

// Cached is a read-through cache in front of a Store. Writes go to the
// backend first and then replace the cached copy.
type Cached struct {
	store Store
	cache *cache.LRUCache[[]byte]
}

// NewCached wraps store with c.
func NewCached(store Store, c *cache.LRUCache[[]byte]) *Cached {
	return &Cached{store: store, cache: c}
}

func (c *Cached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return clone(v), true, nil
	}
	v, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return v, found, err
	}
	c.cache.Set(key, clone(v))
	return v, true, nil
}

func (c *Cached) Set(ctx context.Context, key string, value []byte) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, clone(value))
	return nil
}

func (c *Cached) Remove(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return c.store.Remove(ctx, key)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of keys kept by NewCached when size is 0.
const DefaultCacheSize = 64

// Cached is a read-through LRU cache in front of another Store. Writes go
// to the backend first and update the cache only on success.
type Cached struct {
	backend Store
	cache   *lru.Cache[string, []byte]
}

// NewCached wraps backend with an LRU cache holding up to size keys.
func NewCached(backend Store, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cached{backend: backend, cache: cache}, nil
}

// Get serves key from the cache, falling back to the backend.
func (c *Cached) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := c.cache.Get(key); ok {
		return copyBytes(value), nil
	}

	value, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, copyBytes(value))
	return value, nil
}

// Reload reads key from the backend and replaces the cached value.
func (c *Cached) Reload(ctx context.Context, key string) ([]byte, error) {
	value, err := c.backend.Get(ctx, key)
	if err != nil {
		c.cache.Remove(key)
		return nil, err
	}
	c.cache.Add(key, copyBytes(value))
	return value, nil
}

// Set writes through to the backend.
func (c *Cached) Set(ctx context.Context, key string, value []byte) error {
	if err := c.backend.Set(ctx, key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, copyBytes(value))
	return nil
}

// Delete removes key from the backend and the cache.
func (c *Cached) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.backend.Delete(ctx, key)
}

// Close purges the cache and closes the backend.
func (c *Cached) Close() error {
	c.cache.Purge()
	return c.backend.Close()
}

// Len returns the number of cached keys.
func (c *Cached) Len() int {
	return c.cache.Len()
}

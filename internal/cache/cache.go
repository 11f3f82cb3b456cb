// Package cache provides the process-wide caches for response tables and
// questionnaire schemas. Entries are written once per key and only ever
// replaced whole; readers always see a complete value.
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"ai2c-dataviz/internal/common/logger"
	"ai2c-dataviz/internal/common/metrics"
)

// Key identifies a cache entry by environment and survey key.
type Key struct {
	Env    string
	Survey string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Env, k.Survey)
}

// Backing is an optional shared second level, e.g. redis, so several
// processes agree on the first value written for a key.
type Backing[V any] interface {
	Get(ctx context.Context, key Key) (V, bool, error)
	SetIfAbsent(ctx context.Context, key Key, v V) (bool, error)
	Set(ctx context.Context, key Key, v V) error
}

// LoadFunc produces a value for a missing key. Returning cacheable=false hands
// the value to the caller without storing it.
type LoadFunc[V any] func(ctx context.Context) (v V, cacheable bool, err error)

// Cache is a first-writer-wins map with atomic replacement.
type Cache[V any] struct {
	name    string
	mu      sync.RWMutex
	entries map[Key]V
	group   singleflight.Group
	backing Backing[V]
	logger  logger.Logger
}

type Option[V any] func(*Cache[V])

func WithBacking[V any](b Backing[V]) Option[V] {
	return func(c *Cache[V]) { c.backing = b }
}

func WithLogger[V any](l logger.Logger) Option[V] {
	return func(c *Cache[V]) { c.logger = l }
}

func New[V any](name string, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		name:    name,
		entries: make(map[Key]V),
		logger:  logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithFields(map[string]interface{}{"cache": name})
	return c
}

// Get returns the local entry for key.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Len reports the number of local entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// InsertIfAbsent stores v unless the key already has a value, and returns the
// value that is cached afterwards.
func (c *Cache[V]) InsertIfAbsent(ctx context.Context, key Key, v V) (V, bool) {
	c.mu.Lock()
	if existing, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return existing, false
	}
	c.entries[key] = v
	c.mu.Unlock()

	if c.backing != nil {
		if _, err := c.backing.SetIfAbsent(ctx, key, v); err != nil {
			c.backingFailed("set_if_absent", key, err)
		}
	}
	return v, true
}

// Replace swaps the entry for key with v.
func (c *Cache[V]) Replace(ctx context.Context, key Key, v V) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()

	if c.backing != nil {
		if err := c.backing.Set(ctx, key, v); err != nil {
			c.backingFailed("set", key, err)
		}
	}
	c.logger.Info("cache entry replaced", map[string]interface{}{"key": key.String()})
}

// GetOrLoad returns the cached value for key, loading it at most once across
// concurrent callers. Load errors are returned and nothing is cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key Key, load LoadFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
		return v, nil
	}

	res, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		if v, ok := c.fromBacking(ctx, key); ok {
			metrics.CacheLookups.WithLabelValues(c.name, "shared_hit").Inc()
			stored, _ := c.InsertIfAbsent(ctx, key, v)
			return stored, nil
		}

		metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
		v, cacheable, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if !cacheable {
			return v, nil
		}
		return c.insertShared(ctx, key, v), nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}

// insertShared stores a freshly loaded value. When another process already
// published a value for key through the backing, that value wins.
func (c *Cache[V]) insertShared(ctx context.Context, key Key, v V) V {
	if c.backing != nil {
		won, err := c.backing.SetIfAbsent(ctx, key, v)
		if err != nil {
			c.backingFailed("set_if_absent", key, err)
		} else if !won {
			if shared, ok := c.fromBacking(ctx, key); ok {
				v = shared
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = v
	return v
}

func (c *Cache[V]) fromBacking(ctx context.Context, key Key) (V, bool) {
	var zero V
	if c.backing == nil {
		return zero, false
	}
	v, ok, err := c.backing.Get(ctx, key)
	if err != nil {
		c.backingFailed("get", key, err)
		return zero, false
	}
	return v, ok
}

func (c *Cache[V]) backingFailed(op string, key Key, err error) {
	c.logger.Warn("cache backing unavailable, continuing with local entries", map[string]interface{}{
		"op":    op,
		"key":   key.String(),
		"error": err.Error(),
	})
}

package whisper

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity bounds the loaded-model cache; instances are large,
// so only the current model plus one override stay resident.
const DefaultCacheCapacity = 2

// LoadedModel is a ready-to-use model handle shared by every request that
// resolves the same key.
type LoadedModel struct {
	Key string
	Dir string
}

// EnsureFunc materializes the model behind a key and returns its directory.
type EnsureFunc func(ctx context.Context, key string) (string, error)

// Cache memoizes loaded models by key with LRU eviction. Construction is
// collapsed per key through a single-flight group, so concurrent resolutions
// of the same key trigger at most one materialization.
type Cache struct {
	ensure   EnsureFunc
	capacity int

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*LoadedModel
	order   []string // least recently used first
}

func NewCache(ensure EnsureFunc, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		ensure:   ensure,
		capacity: capacity,
		entries:  make(map[string]*LoadedModel),
	}
}

// Resolve returns the cached model for key, constructing it on first use.
// The empty key selects the process default model.
func (c *Cache) Resolve(ctx context.Context, key string) (*LoadedModel, error) {
	key = strings.TrimSpace(key)

	c.mu.Lock()
	if model, ok := c.entries[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		return model, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		dir, err := c.ensure(ctx, key)
		if err != nil {
			return nil, err
		}
		return &LoadedModel{Key: key, Dir: dir}, nil
	})
	if err != nil {
		return nil, err
	}

	model := v.(*LoadedModel)

	c.mu.Lock()
	if existing, ok := c.entries[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		return existing, nil
	}
	c.entries[key] = model
	c.order = append(c.order, key)
	for len(c.entries) > c.capacity {
		evicted := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, evicted)
	}
	c.mu.Unlock()

	return model, nil
}

// Len reports the number of resident models.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}

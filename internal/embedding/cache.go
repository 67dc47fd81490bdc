package embedding

import (
	"context"
	"sync"

	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/hash"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// Cache stores embeddings keyed by text. Implementations must be safe for
// concurrent use. A cache miss is never an error.
type Cache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Set(ctx context.Context, text string, vector []float32)
}

// NewCache creates the configured cache backend.
func NewCache(cfg config.CacheConfig, log *logger.Logger) (Cache, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryCache(cfg.Size), nil
	case "redis":
		return NewRedisCache(cfg, log)
	case "none":
		return nopCache{}, nil
	default:
		return nil, errors.ValidationError("unknown cache type: " + cfg.Type)
	}
}

// MemoryCache is an in-process LRU cache of embeddings by text hash.
type MemoryCache struct {
	mu      sync.RWMutex
	cache   map[string][]float32
	order   []string
	maxSize int
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryCache{
		cache:   make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get retrieves an embedding. The returned slice is a copy.
func (c *MemoryCache) Get(_ context.Context, text string) ([]float32, bool) {
	key := hash.SHA256String(text)

	c.mu.RLock()
	vector, ok := c.cache[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	out := make([]float32, len(vector))
	copy(out, vector)
	return out, true
}

// Set stores an embedding, evicting the least recently used entries when
// the cache is full.
func (c *MemoryCache) Set(_ context.Context, text string, vector []float32) {
	key := hash.SHA256String(text)

	stored := make([]float32, len(vector))
	copy(stored, vector)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; exists {
		c.cache[key] = stored
		c.moveToEnd(key)
		return
	}

	for len(c.cache) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = stored
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// moveToEnd marks a key most recently used. Caller must hold the lock.
func (c *MemoryCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]float32, bool) { return nil, false }
func (nopCache) Set(context.Context, string, []float32)        {}

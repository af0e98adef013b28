package construction

import (
	"sync"
)

// Cache deduplicates constructed molecules by their content-addressed
// construction key. Capacity is bounded; when full, the oldest entry is
// evicted first. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*ConstructedMolecule
	order    []string
}

// DefaultCacheCapacity bounds a cache built with NewCache(0).
const DefaultCacheCapacity = 256

// NewCache returns a cache holding at most capacity molecules. A
// non-positive capacity selects DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*ConstructedMolecule),
	}
}

// Get returns the cached molecule for key, if any.
func (c *Cache) Get(key string) (*ConstructedMolecule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cm, ok := c.entries[key]
	return cm, ok
}

// Put stores cm under its construction key, evicting the oldest entry
// if the cache is full.
func (c *Cache) Put(cm *ConstructedMolecule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cm.CacheKey()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = cm
		return
	}
	for len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = cm
	c.order = append(c.order, key)
}

// Evict removes the entry for key, reporting whether one existed.
func (c *Cache) Evict(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of cached molecules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

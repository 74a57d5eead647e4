package classifier

import (
	"container/list"
	"sync"
)

type cacheKey struct {
	version uint64
	ua      string
}

type cacheEntry struct {
	key   cacheKey
	value Classification
}

// resultCache is a thread-safe LRU of classifications.
// Keys include the catalog version, so a hit always equals a fresh classification.
type resultCache struct {
	capacity int
	items    map[cacheKey]*list.Element
	order    *list.List
	mu       sync.Mutex
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		items:    make(map[cacheKey]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *resultCache) get(key cacheKey) (Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return Classification{}, false
}

func (c *resultCache) put(key cacheKey, value Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

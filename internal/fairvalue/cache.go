package fairvalue

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cache stores resolved prices by odds-set key.
type Cache interface {
	Get(ctx context.Context, key string) (Price, bool)
	Set(ctx context.Context, key string, p Price)
}

// MemoryCache is a bounded LRU with a per-entry TTL. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	ll      *list.List
	items   map[string]*list.Element
	now     func() time.Time
}

type memoryEntry struct {
	key     string
	price   Price
	expires time.Time
}

// NewMemoryCache creates a cache holding at most maxSize entries. A ttl of
// zero keeps entries until they are evicted by size.
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &MemoryCache{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns a live entry and marks it recently used.
func (c *MemoryCache) Get(_ context.Context, key string) (Price, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return Price{}, false
	}
	e := el.Value.(*memoryEntry)
	if c.ttl > 0 && c.now().After(e.expires) {
		c.ll.Remove(el)
		delete(c.items, key)
		return Price{}, false
	}
	c.ll.MoveToFront(el)
	return e.price, true
}

// Set stores an entry, evicting the least recently used one when full.
func (c *MemoryCache) Set(_ context.Context, key string, p Price) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.price = p
		e.expires = expires
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&memoryEntry{key: key, price: p, expires: expires})
	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*memoryEntry).key)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Tiered checks a near cache first and falls back to a shared far cache,
// copying far hits into the near cache.
type Tiered struct {
	Near Cache
	Far  Cache
}

func (t Tiered) Get(ctx context.Context, key string) (Price, bool) {
	if p, ok := t.Near.Get(ctx, key); ok {
		return p, true
	}
	p, ok := t.Far.Get(ctx, key)
	if ok {
		t.Near.Set(ctx, key, p)
	}
	return p, ok
}

func (t Tiered) Set(ctx context.Context, key string, p Price) {
	t.Near.Set(ctx, key, p)
	t.Far.Set(ctx, key, p)
}

// Package profilecache memoizes aggregated profiles by the content hash of
// their raw responses.
package profilecache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/pkg/metrics"
)

// Cache maps response fingerprints to aggregated profiles. Narratives are
// never cached, only profiles.
type Cache interface {
	// Get returns the profile stored under key.
	Get(ctx context.Context, key uint64) (profile.UnifiedProfile, bool)
	// Put stores p under key, evicting the least recently used entry when
	// full.
	Put(ctx context.Context, key uint64, p profile.UnifiedProfile)
	// Invalidate drops key.
	Invalidate(ctx context.Context, key uint64)

	Size() int64
}

// node is one entry of the recency list, most recently used at head.
type node struct {
	key        uint64
	val        profile.UnifiedProfile
	prev, next *node
}

func (n *node) reset() {
	n.key = 0
	n.val = profile.UnifiedProfile{}
	n.prev, n.next = nil, nil
}

// inMemoryCache is a least-recently-used cache when maxSize > 0. Get and
// Put both mark the entry as most recently used. With maxSize <= 0 it
// never evicts.
type inMemoryCache struct {
	mu         sync.Mutex
	entries    map[uint64]*node
	head, tail *node
	maxSize    int
	size       atomic.Int64
	nodePool   sync.Pool
}

// NewInMemoryCache creates a profile cache.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[uint64]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, key uint64) (profile.UnifiedProfile, bool) {
	c.mu.Lock()
	n, ok := c.entries[key]
	var p profile.UnifiedProfile
	if ok {
		c.unlink(n)
		c.pushFront(n)
		p = n.val
	}
	c.mu.Unlock()

	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return p, ok
}

func (c *inMemoryCache) Put(ctx context.Context, key uint64, p profile.UnifiedProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.val = p
		c.unlink(n)
		c.pushFront(n)
		return
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.val = p
	c.pushFront(n)
	c.entries[key] = n
	c.size.Add(1)
	metrics.UpdateCacheSize(int(c.size.Load()))
}

func (c *inMemoryCache) Invalidate(ctx context.Context, key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.unlink(n)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
	metrics.UpdateCacheSize(int(c.size.Load()))
}

// pushFront links n as the head. Must be called with c.mu held.
func (c *inMemoryCache) pushFront(n *node) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

// unlink removes n from the list. Must be called with c.mu held.
func (c *inMemoryCache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// evictOldest removes the least recently used entry. Must be called with
// c.mu held.
func (c *inMemoryCache) evictOldest() {
	tail := c.tail
	if tail == nil {
		return
	}
	c.unlink(tail)
	delete(c.entries, tail.key)
	tail.reset()
	c.nodePool.Put(tail)
	c.size.Add(-1)
	metrics.RecordCacheEviction()
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

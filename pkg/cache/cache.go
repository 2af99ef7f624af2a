// Package cache provides a thread-safe LRU cache of compiled programs.
//
// The evaluator keys it by source text: RunSource and every INTERPRET of a
// string already seen skip the lexer and parser. Programs are immutable, so
// one cached program may run in many sessions at once.
//
// # Example
//
//	c := cache.New(512)
//	prog, err := c.GetOrCompile(src, func() (*types.Program, error) {
//	    return parser.Parse(src)
//	})
package cache

import (
	"container/list"
	"sync"

	"github.com/sandrolain/gorexx/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

type slot struct {
	source string
	prog   *types.Program
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
}

// Cache is an LRU cache of compiled programs. When full, the least recently
// used program is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	bySource map[string]*list.Element
	stats    Stats
}

// New creates a cache holding at most capacity programs.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		bySource: make(map[string]*list.Element, capacity),
	}
}

// Get returns the program compiled from source, marking it most recently used.
func (c *Cache) Get(source string) (*types.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.bySource[source]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*slot).prog, true
}

// Put stores prog under source, evicting the least recently used program
// when the cache is full.
func (c *Cache) Put(source string, prog *types.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.bySource[source]; ok {
		el.Value.(*slot).prog = prog
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.bySource, oldest.Value.(*slot).source)
		c.stats.Evictions++
	}
	c.bySource[source] = c.order.PushFront(&slot{source: source, prog: prog})
}

// GetOrCompile returns the cached program for source or compiles and stores
// it. Compile errors are not cached.
func (c *Cache) GetOrCompile(source string, compile func() (*types.Program, error)) (*types.Program, error) {
	if prog, ok := c.Get(source); ok {
		return prog, nil
	}
	prog, err := compile()
	if err != nil {
		return nil, err
	}
	c.Put(source, prog)
	return prog, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of cached programs.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit, miss and eviction counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Len = c.order.Len()
	return s
}

// Invalidate drops the program compiled from source.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.bySource[source]; ok {
		c.order.Remove(el)
		delete(c.bySource, source)
	}
}

// Clear drops every program. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.bySource = make(map[string]*list.Element, c.capacity)
}

// Package cache keeps compiled path expressions keyed by their source text.
//
// An Evaluator created WithCaching(true) compiles through a Cache, and the
// gofhirpath facade shares one package-wide Cache across every call made
// WithCaching. Validation rules and profile invariants tend to repeat the
// same handful of paths, such as "Patient.name.where(use = 'official')", so
// the hit rate is usually high; Stats reports it.
//
// A types.Expression is immutable once compiled, so a cached expression may
// be evaluated by any number of goroutines at the same time.
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile(query, func() (*types.Expression, error) {
//	    return parser.Compile(query)
//	})
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/gofhirpath/pkg/types"
)

// DefaultCapacity is used by New when no positive capacity is given.
const DefaultCapacity = 256

// compiled is one cached expression together with the source it was
// compiled from.
type compiled struct {
	source string
	expr   *types.Expression
}

// Cache holds up to Capacity compiled expressions and evicts the one that
// was used least recently. All methods are safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	recency  *list.List // front is the most recently used
	bySource map[string]*list.Element

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats counts GetOrCompile lookups. Len is the number of expressions held
// when the snapshot was taken.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// New returns an empty cache holding at most capacity expressions.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		recency:  list.New(),
		bySource: make(map[string]*list.Element, capacity),
	}
}

// Get returns the expression compiled from source and marks it as recently
// used.
func (c *Cache) Get(source string) (*types.Expression, bool) {
	c.mu.RLock()
	el, ok := c.bySource[source]
	atFront := ok && c.recency.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !atFront {
		// The entry may have been evicted between the two locks.
		c.mu.Lock()
		el, ok = c.bySource[source]
		if ok {
			c.recency.MoveToFront(el)
		}
		c.mu.Unlock()
		if !ok {
			return nil, false
		}
	}
	return el.Value.(*compiled).expr, true
}

// Set stores expr under source, evicting the least recently used
// expression when the cache is full.
func (c *Cache) Set(source string, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.bySource[source]; ok {
		el.Value.(*compiled).expr = expr
		c.recency.MoveToFront(el)
		return
	}
	if c.recency.Len() >= c.capacity {
		c.evictOldest()
	}
	c.bySource[source] = c.recency.PushFront(&compiled{source: source, expr: expr})
}

// GetOrCompile returns the cached expression for source, calling compile on
// a miss. Syntax errors are returned to the caller and not remembered, so a
// query that fails to compile is parsed again on its next use.
func (c *Cache) GetOrCompile(source string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(source); ok {
		c.hits.Add(1)
		return expr, nil
	}
	c.misses.Add(1)
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(source, expr)
	return expr, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bySource)
}

// Stats returns the lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.Len()}
}

// Capacity returns the maximum number of cached expressions.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate drops the expression compiled from source.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.bySource[source]; ok {
		c.recency.Remove(el)
		delete(c.bySource, source)
	}
}

// Clear drops every cached expression. The counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recency.Init()
	c.bySource = make(map[string]*list.Element, c.capacity)
}

// evictOldest must be called with c.mu held for writing.
func (c *Cache) evictOldest() {
	el := c.recency.Back()
	if el == nil {
		return
	}
	c.recency.Remove(el)
	delete(c.bySource, el.Value.(*compiled).source)
}

package virtual

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
)

// DefaultCacheSize is the default number of cached items.
const DefaultCacheSize = 8192

// Entry is the cached representation of one cell.
type Entry struct {
	Item    core.Item
	Content cell.Content // nil until fetched
	State   any          // renderer draw state for this cell
	Visible bool

	gen uint64 // bumped by Invalidate
}

// ItemCache is a bounded LRU of virtual items keyed by cell coordinate. It
// also owns each cell's renderer draw state, which is dropped with the
// entry. Entries inside the current window are never evicted; entries
// outside it are marked invisible and evicted oldest-access-first once the
// cache exceeds its capacity.
type ItemCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[core.Item]*list.Element
	lru      *list.List // front is most recently used

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewItemCache creates a cache holding up to capacity items.
func NewItemCache(capacity int) *ItemCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &ItemCache{
		capacity: capacity,
		entries:  make(map[core.Item]*list.Element),
		lru:      list.New(),
	}
}

// entry returns the entry for item, creating it when missing. Caller holds mu.
func (c *ItemCache) entry(item core.Item) (*Entry, bool) {
	if el, ok := c.entries[item]; ok {
		c.lru.MoveToFront(el)
		return el.Value.(*Entry), true
	}
	e := &Entry{Item: item}
	c.entries[item] = c.lru.PushFront(e)
	return e, false
}

// Touch records an access to item, marks it visible and returns a copy of
// its entry.
func (c *ItemCache) Touch(item core.Item) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, _ := c.entry(item)
	e.Visible = true
	return *e
}

// Content returns the cached content for item, fetching it with get on a
// miss. get runs without the lock held, so an Invalidate for item may land
// while it runs; the fetched value is then returned for this frame but not
// stored, since it may predate the update. A nil result is not cached.
func (c *ItemCache) Content(item core.Item, get func(core.Item) cell.Content) cell.Content {
	c.mu.Lock()
	e, _ := c.entry(item)
	e.Visible = true
	if e.Content != nil {
		c.mu.Unlock()
		c.hits.Add(1)
		return e.Content
	}
	gen := e.gen
	c.mu.Unlock()

	c.misses.Add(1)
	content := get(item)
	if content == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(item, e, gen, content)
	return content
}

// storeLocked saves content when e is still the live entry for item and
// has not been invalidated since gen was read. Caller holds mu.
func (c *ItemCache) storeLocked(item core.Item, e *Entry, gen uint64, content cell.Content) bool {
	el, ok := c.entries[item]
	if !ok || el.Value.(*Entry) != e || e.gen != gen || e.Content != nil {
		return false
	}
	e.Content = content
	return true
}

// Prefetch fills content for items not already cached without marking them
// visible. It stops once the cache is full of visible entries.
func (c *ItemCache) Prefetch(items []core.Item, get func(core.Item) cell.Content) int {
	n := 0
	for _, item := range items {
		c.mu.Lock()
		if len(c.entries) >= c.capacity {
			if _, ok := c.entries[item]; !ok {
				c.mu.Unlock()
				break
			}
		}
		e, existed := c.entry(item)
		if existed && e.Content != nil {
			c.mu.Unlock()
			continue
		}
		gen := e.gen
		c.mu.Unlock()

		content := get(item)
		if content == nil {
			continue
		}
		c.mu.Lock()
		if c.storeLocked(item, e, gen, content) {
			n++
		}
		c.mu.Unlock()
	}
	return n
}

// Get returns a copy of the entry for item without touching it.
func (c *ItemCache) Get(item core.Item) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[item]
	if !ok {
		return Entry{}, false
	}
	return *el.Value.(*Entry), true
}

// DrawState returns the renderer state stored for item.
func (c *ItemCache) DrawState(item core.Item) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[item]; ok {
		return el.Value.(*Entry).State
	}
	return nil
}

// SetDrawState stores renderer state for item.
func (c *ItemCache) SetDrawState(item core.Item, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, _ := c.entry(item)
	e.State = v
}

// Invalidate drops the cached content for items, keeping their draw state.
func (c *ItemCache) Invalidate(items ...core.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		if el, ok := c.entries[item]; ok {
			e := el.Value.(*Entry)
			e.Content = nil
			e.gen++
		}
	}
}

// InvalidateAll drops all cached content.
func (c *ItemCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		e.Content = nil
		e.gen++
	}
}

// Clear removes every entry.
func (c *ItemCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[core.Item]*list.Element)
	c.lru.Init()
}

// MarkWindow marks entries outside w invisible and evicts as needed.
func (c *ItemCache) MarkWindow(w Window) {
	c.MarkVisible(w.Contains)
}

// MarkVisible marks entries for which visible returns false as invisible,
// then evicts invisible entries oldest-access-first while over capacity.
func (c *ItemCache) MarkVisible(visible func(core.Item) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		e.Visible = visible(e.Item)
	}
	c.evict()
}

// evict removes invisible entries from the back of the list. Caller holds mu.
func (c *ItemCache) evict() {
	el := c.lru.Back()
	for len(c.entries) > c.capacity && el != nil {
		prev := el.Prev()
		e := el.Value.(*Entry)
		if !e.Visible {
			c.lru.Remove(el)
			delete(c.entries, e.Item)
			c.evictions.Add(1)
		}
		el = prev
	}
}

// Len returns the number of cached entries.
func (c *ItemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured bound.
func (c *ItemCache) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *ItemCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	evictions := c.evictions.Load()

	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:      len(c.entries),
		MaxSize:   c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		HitRate:   hitRate,
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size      int
	MaxSize   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

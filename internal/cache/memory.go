package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is a size-bounded LRU cache.
type Memory struct {
	mu sync.Mutex

	capacity int64
	size     int64
	ttl      time.Duration

	items map[string]*list.Element
	lru   *list.List // front is most recently used

	hits, misses, evictions int64
}

type memEntry struct {
	key    string
	value  []byte
	stored time.Time
}

// NewMemory returns an LRU holding at most capacity bytes. Entries older
// than ttl are treated as missing; a zero ttl disables expiry.
func NewMemory(capacity int64, ttl time.Duration) *Memory {
	return &Memory{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the value for key and marks it as recently used.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := elem.Value.(*memEntry)
	if c.expired(entry) {
		c.remove(elem)
		c.misses++
		return nil, false
	}

	c.lru.MoveToFront(elem)
	c.hits++
	return entry.value, true
}

// Put stores value under key, evicting least recently used entries until
// it fits.
func (c *Memory) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(value))
	if n > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
	for c.size+n > c.capacity && c.lru.Len() > 0 {
		c.remove(c.lru.Back())
		c.evictions++
	}

	c.items[key] = c.lru.PushFront(&memEntry{key: key, value: value, stored: time.Now()})
	c.size += n
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Memory) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
	return nil
}

// Clear drops every entry.
func (c *Memory) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.size = 0
	return nil
}

// Size returns the stored bytes.
func (c *Memory) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Contains reports whether key is present without touching recency.
func (c *Memory) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	return ok && !c.expired(elem.Value.(*memEntry))
}

// Stats returns a snapshot of the counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Capacity:  c.capacity,
		Size:      c.size,
		Items:     len(c.items),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Prune drops entries stored before now-maxAge and returns how many went.
func (c *Memory) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memEntry).stored.Before(cutoff) {
			c.remove(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

// must hold c.mu
func (c *Memory) remove(elem *list.Element) {
	entry := c.lru.Remove(elem).(*memEntry)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.value))
}

func (c *Memory) expired(e *memEntry) bool {
	return c.ttl > 0 && time.Since(e.stored) > c.ttl
}

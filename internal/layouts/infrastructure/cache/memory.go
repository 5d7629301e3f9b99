package cache

import (
	"context"
	"sync"
	"time"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryTimelineCache is a process-local timeline cache used in local mode
// and as the fallback when Redis is not configured.
type MemoryTimelineCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryTimelineCache creates a cache whose entries live for ttl. A
// non-positive ttl keeps entries until invalidated.
func NewMemoryTimelineCache(ttl time.Duration) *MemoryTimelineCache {
	return &MemoryTimelineCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached timeline for key.
func (c *MemoryTimelineCache) Get(_ context.Context, key string) (ganttDomain.Timeline, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return ganttDomain.Timeline{}, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return ganttDomain.Timeline{}, false, nil
	}
	tl, err := decodeTimeline(e.data)
	if err != nil {
		return ganttDomain.Timeline{}, false, err
	}
	return tl, true, nil
}

// Set stores a copy of tl under key.
func (c *MemoryTimelineCache) Set(_ context.Context, key string, tl ganttDomain.Timeline) error {
	data, err := encodeTimeline(tl)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Generation returns the number of invalidations so far.
func (c *MemoryTimelineCache) Generation(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

// Invalidate drops every entry and advances the generation.
func (c *MemoryTimelineCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.gen++
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryTimelineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package cache implements a TTL cache for recommendation results with
// reference-based invalidation. Entries are tagged with the user ids they
// were computed from, so changing one profile evicts every cached result
// that mentions it.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teamforge/crew/pkg/metrics"
)

// DefaultTTL is how long recommendation results stay fresh.
const DefaultTTL = 6 * time.Hour

type entry[V any] struct {
	value     V
	expiresAt time.Time
	refs      []string
}

// Cache is a mutex-guarded TTL cache. Zero value is not usable; construct
// with New.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	byRef   map[string]map[string]struct{}
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithTTL overrides the default entry lifetime.
func WithTTL[V any](d time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock overrides the time source.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New[V any](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]entry[V]),
		byRef:   make(map[string]map[string]struct{}),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds a deterministic cache key for a recommendation request.
// Exclusions are sorted so permutations of the same set share a key; empty
// contest and mode collapse to stable sentinels.
func Key(requesterID, contestID, mode string, excludeIDs []string) string {
	if contestID == "" {
		contestID = "all"
	}
	if mode == "" {
		mode = "default"
	}

	var sb strings.Builder
	sb.WriteString(requesterID)
	sb.WriteByte('|')
	sb.WriteString(contestID)
	sb.WriteByte('|')
	sb.WriteString(mode)

	if len(excludeIDs) > 0 {
		sorted := make([]string, 0, len(excludeIDs))
		for _, id := range excludeIDs {
			if id != "" {
				sorted = append(sorted, id)
			}
		}
		sort.Strings(sorted)
		for _, id := range sorted {
			sb.WriteByte('|')
			sb.WriteString(id)
		}
	}
	return sb.String()
}

// Set stores value under key, replacing any previous entry. refs are the
// user ids the value depends on; InvalidateUser uses them for eviction.
func (c *Cache[V]) Set(key string, value V, refs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.dropRefsLocked(key, old.refs)
	}

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
		refs:      refs,
	}
	for _, ref := range refs {
		keys, ok := c.byRef[ref]
		if !ok {
			keys = make(map[string]struct{})
			c.byRef[ref] = keys
		}
		keys[key] = struct{}{}
	}
	metrics.UpdateCacheEntries(len(c.entries))
}

// Get returns the cached value for key. Expired entries are evicted on
// read and count as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.RecordCacheMiss()
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.deleteLocked(key)
		metrics.RecordCacheMiss()
		var zero V
		return zero, false
	}
	metrics.RecordCacheHit()
	return e.value, true
}

// InvalidateUser evicts every entry whose refs mention the user and
// returns how many entries were dropped.
func (c *Cache[V]) InvalidateUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, ok := c.byRef[userID]
	if !ok {
		return 0
	}
	dropped := 0
	for key := range keys {
		if _, exists := c.entries[key]; exists {
			c.deleteLocked(key)
			dropped++
		}
	}
	delete(c.byRef, userID)
	if dropped > 0 {
		metrics.RecordCacheInvalidation(dropped)
	}
	metrics.UpdateCacheEntries(len(c.entries))
	return dropped
}

// Len returns the live entry count, expired entries included until read.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops everything.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.byRef = make(map[string]map[string]struct{})
	metrics.UpdateCacheEntries(0)
}

// deleteLocked removes an entry and its reverse references. Caller holds
// the write lock.
func (c *Cache[V]) deleteLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.dropRefsLocked(key, e.refs)
	delete(c.entries, key)
}

func (c *Cache[V]) dropRefsLocked(key string, refs []string) {
	for _, ref := range refs {
		if keys, ok := c.byRef[ref]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byRef, ref)
			}
		}
	}
}

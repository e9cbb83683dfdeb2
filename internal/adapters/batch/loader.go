// Package batch provides a generic coalescing batch loader and a chunked
// batch processor. The loader turns bursts of single-entity lookups into
// few bulk queries; the processor fans large workloads out in bounded
// chunks.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/teamforge/crew/pkg/logger"
	"github.com/teamforge/crew/pkg/metrics"
)

// Loader defaults.
const (
	DefaultBatchSize = 100
	DefaultDebounce  = 5 * time.Millisecond
	DefaultTTL       = 5 * time.Minute
)

// BatchFunc fetches values for a set of keys in one call. Keys absent from
// the returned map are treated as not found, not as errors.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type result[V any] struct {
	value V
	err   error
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Loader coalesces concurrent loads for the same key into a single fetch,
// batches distinct keys up to a size or debounce window, and caches results
// with a TTL.
type Loader[K comparable, V any] struct {
	fetch     BatchFunc[K, V]
	batchSize int
	debounce  time.Duration
	ttl       time.Duration
	now       func() time.Time
	log       logger.Logger
	name      string

	mu      sync.Mutex
	cache   map[K]cacheEntry[V]
	pending map[K][]chan result[V]
	order   []K
	timer   *time.Timer
}

// NewLoader creates a batch loader around fetch.
func NewLoader[K comparable, V any](fetch BatchFunc[K, V], opts ...Option[K, V]) *Loader[K, V] {
	l := &Loader[K, V]{
		fetch:     fetch,
		batchSize: DefaultBatchSize,
		debounce:  DefaultDebounce,
		ttl:       DefaultTTL,
		now:       time.Now,
		log:       logger.Get().Named("loader"),
		name:      "loader",
		cache:     make(map[K]cacheEntry[V]),
		pending:   make(map[K][]chan result[V]),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the value for key, waiting on an in-flight fetch when one
// already covers the key. A cancelled caller stops waiting but the fetch
// still completes and populates the cache.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	l.mu.Lock()

	if entry, ok := l.cache[key]; ok {
		if l.now().Before(entry.expiresAt) {
			l.mu.Unlock()
			metrics.RecordLoaderCacheHit()
			return entry.value, nil
		}
		delete(l.cache, key)
	}

	ch := make(chan result[V], 1)
	if waiters, inflight := l.pending[key]; inflight {
		l.pending[key] = append(waiters, ch)
		metrics.RecordLoaderCoalesced()
	} else {
		l.pending[key] = []chan result[V]{ch}
		l.order = append(l.order, key)
		if len(l.order) >= l.batchSize {
			l.flushLocked()
		} else if l.timer == nil {
			l.timer = time.AfterFunc(l.debounce, l.onDebounce)
		}
	}
	l.mu.Unlock()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// LoadMany returns values in the same order as keys. Keys that are not
// found or whose batch fetch fails yield the zero value; per-key failures
// are logged, never returned. Only caller cancellation aborts the sweep.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, error) {
	out := make([]V, len(keys))
	for i, key := range keys {
		v, err := l.Load(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Warn(ctx, "load failed, keeping zero value",
				logger.String("loader", l.name),
				logger.Any("key", key),
				logger.Error(err))
			continue
		}
		out[i] = v
	}
	return out, nil
}

// Clear drops all cached values. In-flight fetches are unaffected.
func (l *Loader[K, V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[K]cacheEntry[V])
}

// Stats is a point-in-time snapshot of loader state.
type Stats struct {
	CachedEntries int `json:"cached_entries"`
	PendingKeys   int `json:"pending_keys"`
}

// Stats reports cache and pending-queue sizes.
func (l *Loader[K, V]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{CachedEntries: len(l.cache), PendingKeys: len(l.order)}
}

// onDebounce fires when the debounce window closes.
func (l *Loader[K, V]) onDebounce() {
	l.mu.Lock()
	l.timer = nil
	for len(l.order) > 0 {
		l.flushLocked()
	}
	l.mu.Unlock()
}

// flushLocked takes up to one batch of pending keys and dispatches the
// fetch. Caller holds l.mu.
func (l *Loader[K, V]) flushLocked() {
	n := len(l.order)
	if n == 0 {
		return
	}
	if n > l.batchSize {
		n = l.batchSize
	}

	keys := make([]K, n)
	copy(keys, l.order[:n])
	l.order = l.order[n:]

	waiters := make(map[K][]chan result[V], n)
	for _, key := range keys {
		waiters[key] = l.pending[key]
		delete(l.pending, key)
	}

	go l.run(keys, waiters)
}

// run executes one batch fetch and fans results out to waiters. The fetch
// uses a detached context so abandoned callers still warm the cache.
func (l *Loader[K, V]) run(keys []K, waiters map[K][]chan result[V]) {
	metrics.RecordLoaderBatch(len(keys))

	values, err := l.fetch(context.Background(), keys)
	if err != nil {
		metrics.RecordLoaderError()
		l.log.Error(context.Background(), "batch fetch failed",
			logger.String("loader", l.name),
			logger.Int("keys", len(keys)),
			logger.Error(err))
		for _, chans := range waiters {
			for _, ch := range chans {
				ch <- result[V]{err: err}
			}
		}
		return
	}

	expiresAt := l.now().Add(l.ttl)
	l.mu.Lock()
	for key, value := range values {
		l.cache[key] = cacheEntry[V]{value: value, expiresAt: expiresAt}
	}
	l.mu.Unlock()

	for key, chans := range waiters {
		value := values[key] // zero value when the key was not found
		for _, ch := range chans {
			ch <- result[V]{value: value}
		}
	}
}

package batch

import (
	"time"

	"github.com/teamforge/crew/pkg/logger"
)

// Option configures a Loader.
type Option[K comparable, V any] func(*Loader[K, V])

// WithBatchSize sets the maximum keys per fetch.
func WithBatchSize[K comparable, V any](n int) Option[K, V] {
	return func(l *Loader[K, V]) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithDebounce sets how long the loader waits for more keys before
// flushing a partial batch.
func WithDebounce[K comparable, V any](d time.Duration) Option[K, V] {
	return func(l *Loader[K, V]) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// WithTTL sets how long fetched values stay cached.
func WithTTL[K comparable, V any](d time.Duration) Option[K, V] {
	return func(l *Loader[K, V]) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithClock overrides the time source used for TTL checks.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(l *Loader[K, V]) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger[K comparable, V any](log logger.Logger) Option[K, V] {
	return func(l *Loader[K, V]) {
		if log != nil {
			l.log = log
		}
	}
}

// WithName labels the loader in logs.
func WithName[K comparable, V any](name string) Option[K, V] {
	return func(l *Loader[K, V]) {
		if name != "" {
			l.name = name
		}
	}
}

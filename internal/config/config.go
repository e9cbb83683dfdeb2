// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer file and env overrides on top via Load.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FetchLimit caps how many candidates one recommendation run pulls
	// from the store.
	FetchLimit int `koanf:"fetch_limit"`

	// DefaultLimit is the team size returned when the request does not
	// specify one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the requested team size.
	MaxLimit int `koanf:"max_limit"`

	// RecommendationTTLHours controls how long recommendation results
	// stay cached.
	RecommendationTTLHours int `koanf:"recommendation_ttl_hours"`

	// EntityTTLMinutes controls how long batch-loaded entities stay
	// cached.
	EntityTTLMinutes int `koanf:"entity_ttl_minutes"`

	// LoaderBatchSize bounds keys per batched entity fetch.
	LoaderBatchSize int `koanf:"loader_batch_size"`

	// LoaderDebounceMS is the wait for more keys before a partial flush.
	LoaderDebounceMS int `koanf:"loader_debounce_ms"`

	// ChunkSize bounds items per processing chunk.
	ChunkSize int `koanf:"chunk_size"`

	// Concurrency bounds parallel scoring within a chunk.
	Concurrency int `koanf:"concurrency"`

	// SeedFile optionally points at a JSON fixture of profiles and
	// contests loaded at startup.
	SeedFile string `koanf:"seed_file"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9090",
		FetchLimit:             200,
		DefaultLimit:           10,
		MaxLimit:               50,
		RecommendationTTLHours: 6,
		EntityTTLMinutes:       5,
		LoaderBatchSize:        100,
		LoaderDebounceMS:       5,
		ChunkSize:              100,
		Concurrency:            runtime.NumCPU() * 2,
	}
}

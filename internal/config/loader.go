package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CREW_CONFIG is set
//  3. env (prefix CREW_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CREW_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: CREW_ADDR, CREW_FETCH_LIMIT, ...
	// Map env keys like CREW_FETCH_LIMIT -> fetch_limit (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CREW_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "crew_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.FetchLimit <= 0:
		return fmt.Errorf("%w: fetch_limit must be positive", ErrInvalidConfig)
	case cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit:
		return fmt.Errorf("%w: default_limit must be in (0, max_limit]", ErrInvalidConfig)
	case cfg.RecommendationTTLHours <= 0:
		return fmt.Errorf("%w: recommendation_ttl_hours must be positive", ErrInvalidConfig)
	case cfg.EntityTTLMinutes <= 0:
		return fmt.Errorf("%w: entity_ttl_minutes must be positive", ErrInvalidConfig)
	case cfg.LoaderBatchSize <= 0:
		return fmt.Errorf("%w: loader_batch_size must be positive", ErrInvalidConfig)
	case cfg.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	case cfg.Concurrency <= 0:
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}

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
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if NAMEARENA_CONFIG is set
//  3. env (prefix NAMEARENA_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("NAMEARENA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: NAMEARENA_ADDR, NAMEARENA_QUEUE_SIZE, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("NAMEARENA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "namearena_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engine cannot run on.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: store must be memory or sqlite, got %q", ErrInvalidConfig, c.Store)
	case c.EloMinRating >= c.EloMaxRating:
		return fmt.Errorf("%w: elo rating band is empty", ErrInvalidConfig)
	case c.BlendMinRating >= c.BlendMaxRating:
		return fmt.Errorf("%w: blend rating band is empty", ErrInvalidConfig)
	case c.InitialRating < c.EloMinRating || c.InitialRating > c.EloMaxRating:
		return fmt.Errorf("%w: initial_rating %.1f outside the elo band", ErrInvalidConfig, c.InitialRating)
	case c.EloKFactor <= 0:
		return fmt.Errorf("%w: elo_k_factor must be positive", ErrInvalidConfig)
	case c.EloDivisor <= 0:
		return fmt.Errorf("%w: elo_divisor must be positive", ErrInvalidConfig)
	case c.MaxTournamentItems < 2:
		return fmt.Errorf("%w: max_tournament_items must allow at least one pair", ErrInvalidConfig)
	}
	return nil
}

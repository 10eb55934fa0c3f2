// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Layer file and env sources on top via Load.
// - External errors are wrapped via this package's error kinds.
package config

import (
	"context"
	"runtime"
)

// Recognized rating store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the rating store backend: "memory" or "sqlite".
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is "sqlite".
	SQLitePath string `koanf:"sqlite_path"`

	// ResultQueueSize bounds the in-memory archive queue.
	ResultQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of archive workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the vote idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxTournamentItems caps the field of one tournament. 64 names is
	// already 2016 matchups.
	MaxTournamentItems int `koanf:"max_tournament_items"`

	// InitialRating seeds names with no stored rating.
	InitialRating float64 `koanf:"initial_rating"`

	// Elo model parameters for live matches.
	EloKFactor   float64 `koanf:"elo_k_factor"`
	EloDivisor   float64 `koanf:"elo_divisor"`
	EloMinRating float64 `koanf:"elo_min_rating"`
	EloMaxRating float64 `koanf:"elo_max_rating"`

	// NewItemMatchThreshold is the match count below which K doubles.
	NewItemMatchThreshold int `koanf:"new_item_match_threshold"`

	// ExtremeLowRating and ExtremeHighRating bound the band outside of
	// which K is dampened.
	ExtremeLowRating  float64 `koanf:"extreme_low_rating"`
	ExtremeHighRating float64 `koanf:"extreme_high_rating"`

	// Position blending parameters.
	BlendMinRating  float64 `koanf:"blend_min_rating"`
	BlendMaxRating  float64 `koanf:"blend_max_rating"`
	BlendMaxMatches int     `koanf:"blend_max_matches"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		Store:                 "memory",
		SQLitePath:            "namearena.db",
		ResultQueueSize:       1024,
		WorkerCount:           runtime.NumCPU(),
		DedupeSize:            50_000,
		MaxLeaderboardLimit:   100,
		MaxTournamentItems:    64,
		InitialRating:         1500,
		EloKFactor:            32,
		EloDivisor:            400,
		EloMinRating:          800,
		EloMaxRating:          2400,
		NewItemMatchThreshold: 5,
		ExtremeLowRating:      1000,
		ExtremeHighRating:     2200,
		BlendMinRating:        1000,
		BlendMaxRating:        2000,
		BlendMaxMatches:       20,
	}
}

// Package repository defines the rating store interface and errors.
package repository

import (
	"context"

	"namearena/internal/domain/model"
)

// Entry represents one name's persisted rating row.
type Entry struct {
	Rank    int     `json:"rank"`
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Matches int     `json:"matches"`
}

// Store provides read access to persisted ratings and the single write path
// for finished tournaments. Ordering: rating DESC, then name ASC
// (deterministic).
type Store interface {
	// ArchiveResult folds a finished tournament into the store: each
	// standing's blended rating replaces the stored rating, win/loss/match
	// totals accumulate, and the match log is retained for audit.
	ArchiveResult(ctx context.Context, res model.TournamentResult) error

	// Rank returns the current rank and rating for a name.
	// Returns ErrNotFound if the name has never been archived.
	Rank(ctx context.Context, name string) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of names tracked.
	Count(ctx context.Context) int
}

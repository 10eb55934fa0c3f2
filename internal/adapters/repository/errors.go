package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("name not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrOpenStore    = errors.New("failed to open store")
)

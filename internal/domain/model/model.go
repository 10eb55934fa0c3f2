// Package model contains domain models passed between layers.
package model

import "time"

// Item is a candidate name entered into a tournament.
// Display metadata beyond these fields belongs to the client.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Outcome is the five-way vocabulary describing a single vote.
type Outcome string

// Recognized outcome kinds.
const (
	LeftWins    Outcome = "left_wins"
	RightWins   Outcome = "right_wins"
	BothGood    Outcome = "both_good"
	NeitherGood Outcome = "neither_good"
	Tie         Outcome = "tie"
)

// Valid reports whether o is one of the five recognized outcome kinds.
func (o Outcome) Valid() bool {
	switch o {
	case LeftWins, RightWins, BothGood, NeitherGood, Tie:
		return true
	}
	return false
}

// PreferenceSign translates an outcome into the signed pair preference
// recorded by the sorter: +1 left preferred, -1 right preferred, 0 neither.
func (o Outcome) PreferenceSign() int {
	switch o {
	case LeftWins:
		return 1
	case RightWins:
		return -1
	}
	return 0
}

// ItemState is the live per-name tournament state.
type ItemState struct {
	Rating  float64 `json:"rating"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Matches int     `json:"matches"`
}

// MatchRecord is one judged matchup. Records are append-only and ordered by
// MatchNumber; the prior states let a session-level undo restore ratings.
type MatchRecord struct {
	MatchNumber int       `json:"match_number"`
	RoundNumber int       `json:"round_number"`
	Left        string    `json:"left"`
	Right       string    `json:"right"`
	Winner      string    `json:"winner,omitempty"` // empty unless decisive
	Loser       string    `json:"loser,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	PriorLeft   ItemState `json:"prior_left"`
	PriorRight  ItemState `json:"prior_right"`
	PlayedAt    time.Time `json:"played_at"`
}

// FinalStanding is one name's finalized position after blending.
type FinalStanding struct {
	Position   int     `json:"position"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`      // blended, persisted value
	LiveRating float64 `json:"live_rating"` // Elo at completion
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Matches    int     `json:"matches"`
}

// TournamentResult is the finalized output handed to the archive pipeline.
type TournamentResult struct {
	SessionID  string          `json:"session_id"`
	FinishedAt time.Time       `json:"finished_at"`
	Standings  []FinalStanding `json:"standings"`
	Records    []MatchRecord   `json:"records"`
}

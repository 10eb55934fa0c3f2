package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"namearena/internal/domain/model"
	"namearena/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS name_rating (
	name       TEXT PRIMARY KEY,
	rating     REAL NOT NULL,
	wins       INTEGER NOT NULL DEFAULT 0,
	losses     INTEGER NOT NULL DEFAULT 0,
	matches    INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS tournament (
	id          TEXT PRIMARY KEY,
	finished_at TIMESTAMP NOT NULL,
	names       INTEGER NOT NULL,
	matches     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tournament_standing (
	tournament_id TEXT NOT NULL REFERENCES tournament(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	name          TEXT NOT NULL,
	rating        REAL NOT NULL,
	live_rating   REAL NOT NULL,
	wins          INTEGER NOT NULL,
	losses        INTEGER NOT NULL,
	matches       INTEGER NOT NULL,
	PRIMARY KEY (tournament_id, position)
);

CREATE TABLE IF NOT EXISTS match_log (
	tournament_id TEXT NOT NULL REFERENCES tournament(id) ON DELETE CASCADE,
	match_number  INTEGER NOT NULL,
	round_number  INTEGER NOT NULL,
	left_name     TEXT NOT NULL,
	right_name    TEXT NOT NULL,
	winner        TEXT NOT NULL DEFAULT '',
	loser         TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	played_at     TIMESTAMP NOT NULL,
	PRIMARY KEY (tournament_id, match_number)
);

CREATE INDEX IF NOT EXISTS idx_name_rating_rating ON name_rating(rating DESC, name ASC);
`

// sqliteStore persists ratings and the per-tournament audit trail in a
// local SQLite database.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// ensures the schema exists.
func NewSQLiteStore(ctx context.Context, path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent archival.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %w", ErrOpenStore, err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) ArchiveResult(ctx context.Context, res model.TournamentResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tournament (id, finished_at, names, matches) VALUES (?, ?, ?, ?)`,
		res.SessionID, res.FinishedAt, len(res.Standings), len(res.Records),
	); err != nil {
		return fmt.Errorf("insert tournament %s: %w", res.SessionID, err)
	}

	now := time.Now().UTC()
	for _, st := range res.Standings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tournament_standing
				(tournament_id, position, name, rating, live_rating, wins, losses, matches)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.SessionID, st.Position, st.Name, st.Rating, st.LiveRating, st.Wins, st.Losses, st.Matches,
		); err != nil {
			return fmt.Errorf("insert standing %q: %w", st.Name, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO name_rating (name, rating, wins, losses, matches, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
				rating     = excluded.rating,
				wins       = wins + excluded.wins,
				losses     = losses + excluded.losses,
				matches    = matches + excluded.matches,
				updated_at = excluded.updated_at`,
			st.Name, st.Rating, st.Wins, st.Losses, st.Matches, now,
		); err != nil {
			return fmt.Errorf("upsert rating %q: %w", st.Name, err)
		}
	}

	for _, rec := range res.Records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_log
				(tournament_id, match_number, round_number, left_name, right_name, winner, loser, outcome, played_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.SessionID, rec.MatchNumber, rec.RoundNumber, rec.Left, rec.Right,
			rec.Winner, rec.Loser, string(rec.Outcome), rec.PlayedAt,
		); err != nil {
			return fmt.Errorf("insert match %d: %w", rec.MatchNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

func (s *sqliteStore) Rank(ctx context.Context, name string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var e Entry
	e.Name = name
	err := s.db.QueryRowContext(ctx,
		`SELECT rating, wins, losses, matches,
			(SELECT COUNT(*) FROM name_rating o
			  WHERE o.rating > r.rating
			     OR (o.rating = r.rating AND o.name < r.name)) + 1
		 FROM name_rating r WHERE name = ?`, name,
	).Scan(&e.Rating, &e.Wins, &e.Losses, &e.Matches, &e.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query rank %q: %w", name, err)
	}
	return e, nil
}

func (s *sqliteStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, rating, wins, losses, matches
		 FROM name_rating ORDER BY rating DESC, name ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query top %d: %w", n, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Rating, &e.Wins, &e.Losses, &e.Matches); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (s *sqliteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM name_rating`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the underlying database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

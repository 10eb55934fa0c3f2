package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"namearena/internal/domain/model"
	"namearena/pkg/metrics"
)

// row is the mutable stored form of an Entry.
type row struct {
	rating  float64
	wins    int
	losses  int
	matches int
}

// memoryStore keeps ratings in a map and sorts on read. Tournament results
// are retained in a bounded ring for inspection in tests.
type memoryStore struct {
	mu      sync.RWMutex
	rows    map[string]row
	results []model.TournamentResult

	maxResults int
}

// NewMemoryStore creates an in-memory Store. It is the default backend and
// the one the service falls back to when no SQLite path is configured.
func NewMemoryStore(opts ...MemoryOption) Store {
	s := &memoryStore{
		rows:       make(map[string]row),
		maxResults: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MemoryOption applies a configuration option to the memory store.
type MemoryOption func(*memoryStore)

// WithMaxRetainedResults bounds how many archived tournament results the
// store keeps. n <= 0 keeps none.
func WithMaxRetainedResults(n int) MemoryOption {
	return func(s *memoryStore) {
		s.maxResults = n
	}
}

func (s *memoryStore) ArchiveResult(_ context.Context, res model.TournamentResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range res.Standings {
		r := s.rows[st.Name]
		r.rating = st.Rating
		r.wins += st.Wins
		r.losses += st.Losses
		r.matches += st.Matches
		s.rows[st.Name] = r
	}

	if s.maxResults > 0 {
		s.results = append(s.results, res)
		if len(s.results) > s.maxResults {
			s.results = s.results[len(s.results)-s.maxResults:]
		}
	}
	return nil
}

func (s *memoryStore) Rank(_ context.Context, name string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[name]
	if !ok {
		return Entry{}, ErrNotFound
	}

	rank := 1
	for other, or := range s.rows {
		if other == name {
			continue
		}
		if or.rating > r.rating || (or.rating == r.rating && other < name) {
			rank++
		}
	}
	return Entry{
		Rank:    rank,
		Name:    name,
		Rating:  r.rating,
		Wins:    r.wins,
		Losses:  r.losses,
		Matches: r.matches,
	}, nil
}

func (s *memoryStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.rows))
	for name, r := range s.rows {
		entries = append(entries, Entry{
			Name:    name,
			Rating:  r.rating,
			Wins:    r.wins,
			Losses:  r.losses,
			Matches: r.matches,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *memoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// RetainedResults returns the archived tournament results, oldest first.
func (s *memoryStore) RetainedResults() []model.TournamentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TournamentResult, len(s.results))
	copy(out, s.results)
	return out
}

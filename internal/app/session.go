package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"namearena/internal/domain/blend"
	"namearena/internal/domain/model"
	"namearena/internal/domain/rating"
	"namearena/internal/domain/sorter"
)

// Session drives one tournament from creation to a finalized result. It owns
// the pair state machine, the live per-name ratings, and the append-only
// match log. All methods are safe for concurrent use; a single mutex
// serializes votes so rating reads and writes stay consistent.
type Session struct {
	id        string
	createdAt time.Time

	mu      sync.Mutex
	sorter  *sorter.Sorter
	model   *rating.Model
	blender *blend.Blender
	states  map[string]*model.ItemState
	records []model.MatchRecord
	result  *model.TournamentResult

	initialRating   float64
	blendMaxMatches int // <= 0 means full schedule (n-1)
}

// SessionOption applies a configuration option to a session.
type SessionOption func(*Session)

// WithRatingModel sets the rating model used for vote updates.
func WithRatingModel(m *rating.Model) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.model = m
		}
	}
}

// WithBlender sets the blender used at finalization.
func WithBlender(b *blend.Blender) SessionOption {
	return func(s *Session) {
		if b != nil {
			s.blender = b
		}
	}
}

// WithInitialRating sets the rating names start from when no history is
// seeded for them.
func WithInitialRating(r float64) SessionOption {
	return func(s *Session) {
		s.initialRating = r
	}
}

// WithSeededStates pre-loads per-name state, typically carried over from the
// persistent store. Names absent from the map start at the initial rating.
func WithSeededStates(states map[string]model.ItemState) SessionOption {
	return func(s *Session) {
		for name, st := range states {
			st := st
			s.states[name] = &st
		}
	}
}

// WithBlendMaxMatches overrides the match count treated as a full schedule
// when blending. Non-positive values fall back to n-1.
func WithBlendMaxMatches(n int) SessionOption {
	return func(s *Session) {
		s.blendMaxMatches = n
	}
}

// MatchView is the presentation of the pair currently awaiting judgment.
type MatchView struct {
	SessionID   string  `json:"session_id"`
	MatchNumber int     `json:"match_number"`
	RoundNumber int     `json:"round_number"`
	Left        string  `json:"left"`
	Right       string  `json:"right"`
	LeftRating  float64 `json:"left_rating"`
	RightRating float64 `json:"right_rating"`
	TotalPairs  int     `json:"total_pairs"`
	Resolved    int     `json:"resolved"`
}

// NewSession creates a session over an ordered list of names.
func NewSession(id string, names []string, opts ...SessionOption) (*Session, error) {
	st, err := sorter.New(names)
	if err != nil {
		return nil, fmt.Errorf("build pair queue: %w", err)
	}

	s := &Session{
		id:            id,
		createdAt:     time.Now().UTC(),
		sorter:        st,
		model:         rating.NewModel(),
		blender:       blend.NewBlender(),
		states:        make(map[string]*model.ItemState, len(names)),
		initialRating: 1500,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range names {
		if _, seeded := s.states[name]; !seeded {
			s.states[name] = &model.ItemState{Rating: s.initialRating}
		} else {
			// Seeded win/loss/match counts are history, not session state.
			s.states[name] = &model.ItemState{Rating: s.states[name].Rating}
		}
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// CurrentMatch returns the pair awaiting judgment. The second return is
// false once every pair has been voted on.
func (s *Session) CurrentMatch() (MatchView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMatchLocked()
}

func (s *Session) currentMatchLocked() (MatchView, bool) {
	m, ok := s.sorter.NextMatch()
	if !ok {
		return MatchView{}, false
	}
	return MatchView{
		SessionID:   s.id,
		MatchNumber: len(s.records) + 1,
		RoundNumber: s.roundLocked(),
		Left:        m.Left,
		Right:       m.Right,
		LeftRating:  s.states[m.Left].Rating,
		RightRating: s.states[m.Right].Rating,
		TotalPairs:  s.sorter.PairCount(),
		Resolved:    s.sorter.Resolved(),
	}, true
}

// roundLocked derives a 1-based round number: every batch of n/2 matches
// forms a round, mirroring how a physical bracket would schedule them.
func (s *Session) roundLocked() int {
	perRound := len(s.states) / 2
	if perRound < 1 {
		perRound = 1
	}
	return len(s.records)/perRound + 1
}

// SubmitVote applies an outcome to the current pair: ratings move per the
// Elo update, counters follow the returned flags, and the decision lands in
// the undo history. Returns ErrSessionFinished once all pairs are resolved.
func (s *Session) SubmitVote(outcome model.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return ErrSessionFinished
	}
	if !outcome.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	m, ok := s.sorter.NextMatch()
	if !ok {
		return ErrSessionFinished
	}

	left, right := s.states[m.Left], s.states[m.Right]
	priorLeft, priorRight := *left, *right

	upd, err := s.model.ApplyOutcome(
		rating.Side{Rating: left.Rating, Matches: left.Matches},
		rating.Side{Rating: right.Rating, Matches: right.Matches},
		outcome,
	)
	if err != nil {
		return fmt.Errorf("apply outcome: %w", err)
	}

	rec := model.MatchRecord{
		MatchNumber: len(s.records) + 1,
		RoundNumber: s.roundLocked(),
		Left:        m.Left,
		Right:       m.Right,
		Outcome:     outcome,
		PriorLeft:   priorLeft,
		PriorRight:  priorRight,
		PlayedAt:    time.Now().UTC(),
	}
	switch outcome {
	case model.LeftWins:
		rec.Winner, rec.Loser = m.Left, m.Right
	case model.RightWins:
		rec.Winner, rec.Loser = m.Right, m.Left
	}

	if err := s.sorter.AddPreference(m.Left, m.Right, outcome.PreferenceSign()); err != nil {
		return fmt.Errorf("record preference: %w", err)
	}

	left.Rating = upd.RatingA
	right.Rating = upd.RatingB
	if upd.WinA {
		left.Wins++
	}
	if upd.WinB {
		right.Wins++
	}
	if upd.LossA {
		left.Losses++
	}
	if upd.LossB {
		right.Losses++
	}
	left.Matches++
	right.Matches++

	s.records = append(s.records, rec)
	return nil
}

// Undo reverses the most recent vote: the pair reads as unjudged again, both
// names' ratings and counters return to their prior values, and the pair is
// re-presented. Returns ErrNothingToUndo when no vote has been cast and
// ErrSessionFinished once the session is finalized.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return ErrSessionFinished
	}
	if len(s.records) == 0 {
		return ErrNothingToUndo
	}
	if !s.sorter.Undo() {
		return ErrNothingToUndo
	}

	last := s.records[len(s.records)-1]
	s.records = s.records[:len(s.records)-1]
	*s.states[last.Left] = last.PriorLeft
	*s.states[last.Right] = last.PriorRight
	return nil
}

// Done reports whether every pair has been judged.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorter.Done()
}

// Finished reports whether the session has been finalized.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result != nil
}

// Standings returns the current ordering. Before finalization it is the live
// view: ordered by pairwise wins, live ratings in the Rating column. After
// finalization it is the finalized, blended ordering.
func (s *Session) Standings() []model.FinalStanding {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		out := make([]model.FinalStanding, len(s.result.Standings))
		copy(out, s.result.Standings)
		return out
	}

	names := s.orderedNamesLocked()
	out := make([]model.FinalStanding, len(names))
	for i, name := range names {
		st := s.states[name]
		out[i] = model.FinalStanding{
			Position:   i + 1,
			Name:       name,
			Rating:     st.Rating,
			LiveRating: st.Rating,
			Wins:       st.Wins,
			Losses:     st.Losses,
			Matches:    st.Matches,
		}
	}
	return out
}

// orderedNamesLocked ranks names by pairwise win totals, breaking ties with
// the live rating and finally the name itself so orderings are stable.
func (s *Session) orderedNamesLocked() []string {
	totals := s.sorter.WinTotals()
	names := s.sorter.Items()
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if totals[a] != totals[b] {
			return totals[a] > totals[b]
		}
		ra, rb := s.states[a].Rating, s.states[b].Rating
		if ra != rb {
			return ra > rb
		}
		return a < b
	})
	return names
}

// Finalize converts a completed session into a TournamentResult: names are
// ranked by pairwise wins, each position maps onto the blend band, and the
// positional rating is blended against the live Elo. Finalize is idempotent;
// calling it before every pair is judged returns ErrSessionNotDone.
func (s *Session) Finalize() (model.TournamentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return *s.result, nil
	}
	if !s.sorter.Done() {
		return model.TournamentResult{}, ErrSessionNotDone
	}

	names := s.orderedNamesLocked()
	maxMatches := s.blendMaxMatches
	if maxMatches <= 0 {
		maxMatches = len(names) - 1
	}

	standings := make([]model.FinalStanding, len(names))
	for i, name := range names {
		st := s.states[name]
		positional := s.blender.PositionalRating(i, len(names))
		blended := s.blender.Blend(st.Rating, positional, st.Matches, maxMatches)
		standings[i] = model.FinalStanding{
			Position:   i + 1,
			Name:       name,
			Rating:     blended,
			LiveRating: st.Rating,
			Wins:       st.Wins,
			Losses:     st.Losses,
			Matches:    st.Matches,
		}
	}

	records := make([]model.MatchRecord, len(s.records))
	copy(records, s.records)

	s.result = &model.TournamentResult{
		SessionID:  s.id,
		FinishedAt: time.Now().UTC(),
		Standings:  standings,
		Records:    records,
	}
	return *s.result, nil
}

// Records returns a copy of the match log in play order.
func (s *Session) Records() []model.MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MatchRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Package rating implements the Elo-style pairwise update model.
//
// The model is pure: callers hold the per-name state and persist the values
// an update returns. Win/loss bookkeeping follows the returned flags so every
// caller counts the same way.
package rating

import (
	"math"

	"namearena/internal/domain/model"
)

// Default model constants. All of them are overridable through options.
const (
	defaultKFactor          = 32
	defaultDivisor          = 400
	defaultMinRating        = 800
	defaultMaxRating        = 2400
	defaultNewItemThreshold = 5
	defaultExtremeLow       = 1000
	defaultExtremeHigh      = 2200

	// extremeDamp divides K when a rating sits in an extreme band,
	// reducing volatility at the tails.
	extremeDamp = 1.5

	// winScoreThreshold is the actual score at or above which a side is
	// credited with a win. Both-good scores (0.7) qualify; ties do not.
	winScoreThreshold = 0.7
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithKFactor sets the base K-factor.
func WithKFactor(k float64) Option {
	return func(m *Model) {
		if k > 0 {
			m.kFactor = k
		}
	}
}

// WithDivisor sets the logistic expectation divisor.
func WithDivisor(d float64) Option {
	return func(m *Model) {
		if d > 0 {
			m.divisor = d
		}
	}
}

// WithBounds sets the live rating band updates are clamped to.
func WithBounds(minRating, maxRating float64) Option {
	return func(m *Model) {
		if minRating < maxRating {
			m.minRating = minRating
			m.maxRating = maxRating
		}
	}
}

// WithNewItemThreshold sets the match count below which K is doubled.
func WithNewItemThreshold(n int) Option {
	return func(m *Model) {
		if n >= 0 {
			m.newItemThreshold = n
		}
	}
}

// WithExtremeBand sets the rating band outside of which K is dampened.
func WithExtremeBand(low, high float64) Option {
	return func(m *Model) {
		if low < high {
			m.extremeLow = low
			m.extremeHigh = high
		}
	}
}

// Model computes expected scores and rating updates for pairwise matchups.
type Model struct {
	kFactor          float64
	divisor          float64
	minRating        float64
	maxRating        float64
	newItemThreshold int
	extremeLow       float64
	extremeHigh      float64
}

// NewModel creates a rating model with configuration options.
func NewModel(opts ...Option) *Model {
	m := &Model{
		kFactor:          defaultKFactor,
		divisor:          defaultDivisor,
		minRating:        defaultMinRating,
		maxRating:        defaultMaxRating,
		newItemThreshold: defaultNewItemThreshold,
		extremeLow:       defaultExtremeLow,
		extremeHigh:      defaultExtremeHigh,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Side carries the per-name inputs to an update.
type Side struct {
	Rating  float64
	Matches int // matches already played; drives the new-item K boost
}

// Update is the result of applying one outcome to a pair of sides.
type Update struct {
	RatingA float64
	RatingB float64
	DeltaA  float64
	DeltaB  float64
	WinA    bool
	WinB    bool
	LossA   bool
	LossB   bool
}

// ExpectedScore returns the probability that a beats b under the logistic
// model. ExpectedScore(a, b) + ExpectedScore(b, a) == 1 for all finite inputs.
func (m *Model) ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/m.divisor))
}

// ApplyOutcome computes new ratings for both sides of a matchup.
// Resulting ratings are clamped to the configured band. The returned win and
// loss flags implement the bookkeeping policy: a win for any score at or
// above 0.7, a loss only for the decisive loser.
func (m *Model) ApplyOutcome(a, b Side, outcome model.Outcome) (Update, error) {
	if !isFinite(a.Rating) || !isFinite(b.Rating) {
		return Update{}, ErrNonFiniteRating
	}

	var scoreA, scoreB float64
	switch outcome {
	case model.LeftWins:
		scoreA, scoreB = 1, 0
	case model.RightWins:
		scoreA, scoreB = 0, 1
	case model.BothGood:
		scoreA, scoreB = 0.7, 0.7
	case model.NeitherGood:
		scoreA, scoreB = 0.3, 0.3
	case model.Tie:
		scoreA, scoreB = 0.5, 0.5
	default:
		return Update{}, ErrInvalidOutcome
	}

	expectedA := m.ExpectedScore(a.Rating, b.Rating)
	expectedB := 1 - expectedA

	deltaA := m.effectiveK(a) * (scoreA - expectedA)
	deltaB := m.effectiveK(b) * (scoreB - expectedB)

	return Update{
		RatingA: m.clamp(a.Rating + deltaA),
		RatingB: m.clamp(b.Rating + deltaB),
		DeltaA:  deltaA,
		DeltaB:  deltaB,
		WinA:    scoreA >= winScoreThreshold,
		WinB:    scoreB >= winScoreThreshold,
		LossA:   outcome == model.RightWins,
		LossB:   outcome == model.LeftWins,
	}, nil
}

// effectiveK scales the base K for one side: doubled while the name is new,
// dampened while its rating sits in an extreme band.
func (m *Model) effectiveK(s Side) float64 {
	k := m.kFactor
	if s.Matches < m.newItemThreshold {
		k *= 2
	}
	if s.Rating < m.extremeLow || s.Rating > m.extremeHigh {
		k /= extremeDamp
	}
	return k
}

func (m *Model) clamp(r float64) float64 {
	if r < m.minRating {
		return m.minRating
	}
	if r > m.maxRating {
		return m.maxRating
	}
	return r
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

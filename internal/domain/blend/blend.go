// Package blend smooths position-derived ratings against stored history.
//
// A name's position in a finished tournament yields a fresh rating; blending
// weights it against the rating carried into the tournament so a single sort
// cannot swing a well-established name too far.
package blend

// Default blending constants.
const (
	defaultMinRating = 1000
	defaultMaxRating = 2000

	// maxPositionalWeight caps how much the position-derived rating can
	// dominate, no matter how many matches were observed.
	maxPositionalWeight = 0.8

	// weightPerFullSchedule is the positional weight reached when a name
	// has played its full match allotment.
	weightPerFullSchedule = 0.9
)

// Option applies a configuration option to the Blender.
type Option func(*Blender)

// WithBounds sets the positional rating band results are clamped to.
func WithBounds(minRating, maxRating float64) Option {
	return func(b *Blender) {
		if minRating < maxRating {
			b.minRating = minRating
			b.maxRating = maxRating
		}
	}
}

// Blender combines fresh positional ratings with stored ones.
type Blender struct {
	minRating float64
	maxRating float64
}

// NewBlender creates a blender with configuration options.
func NewBlender(opts ...Option) *Blender {
	b := &Blender{
		minRating: defaultMinRating,
		maxRating: defaultMaxRating,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Blend combines an existing rating with a position-derived one, weighted by
// how many matches have been observed. With zero matches the existing rating
// passes through untouched apart from clamping. maxMatches <= 0 is treated
// as zero matches played to avoid a divide by zero.
func (b *Blender) Blend(existing, positional float64, matchesPlayed, maxMatches int) float64 {
	if maxMatches <= 0 {
		matchesPlayed = 0
		maxMatches = 1
	}
	if matchesPlayed < 0 {
		matchesPlayed = 0
	}
	if matchesPlayed > maxMatches {
		matchesPlayed = maxMatches
	}

	factor := float64(matchesPlayed) / float64(maxMatches) * weightPerFullSchedule
	if factor > maxPositionalWeight {
		factor = maxPositionalWeight
	}

	return b.clamp(factor*positional + (1-factor)*existing)
}

// PositionalRating maps a finishing position onto the blend band: the winner
// lands at the top of the band, the last place at the bottom. position is
// zero-based; a single-item field maps to the middle of the band.
func (b *Blender) PositionalRating(position, total int) float64 {
	if total <= 1 {
		return (b.minRating + b.maxRating) / 2
	}
	if position < 0 {
		position = 0
	}
	if position > total-1 {
		position = total - 1
	}
	span := b.maxRating - b.minRating
	return b.maxRating - float64(position)/float64(total-1)*span
}

func (b *Blender) clamp(r float64) float64 {
	if r < b.minRating {
		return b.minRating
	}
	if r > b.maxRating {
		return b.maxRating
	}
	return r
}

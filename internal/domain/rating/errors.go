package rating

import "errors"

// Sentinel kinds for rating errors. Both indicate caller bugs; the engine
// never retries them.
var (
	ErrInvalidOutcome  = errors.New("unrecognized outcome kind")
	ErrNonFiniteRating = errors.New("rating is not finite")
)

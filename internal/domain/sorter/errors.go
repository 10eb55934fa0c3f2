package sorter

import "errors"

// Sentinel kinds for sorter errors. Construction errors are fatal to the
// tournament; the caller reports them and does not retry.
var (
	ErrTooFewItems       = errors.New("at least two items required")
	ErrDuplicateItem     = errors.New("duplicate item")
	ErrUnknownPair       = errors.New("pair not in this sort")
	ErrInvalidPreference = errors.New("preference outside -1..1")
)

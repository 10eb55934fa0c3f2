package api

import (
	"errors"
	"fmt"
)

// ErrBadRequest marks client-side request errors.
var ErrBadRequest = errors.New("bad request")

// Wrap annotates err with the operation it failed in.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind builds an operation-scoped error of a sentinel kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates err with both the operation and a sentinel kind, so
// callers can match the kind while the message keeps the cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

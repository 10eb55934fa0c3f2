package service

import "errors"

// Sentinel kinds for orchestration errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session already finished")
	ErrSessionNotDone  = errors.New("session has unjudged pairs")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrInvalidOutcome  = errors.New("invalid outcome")
	ErrTooManyItems    = errors.New("too many names")
	ErrNotStarted      = errors.New("service not started")
)

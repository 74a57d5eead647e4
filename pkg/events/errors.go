package events

import "errors"

var (
	ErrAlreadyStarted = errors.New("events: dispatcher already started")
	ErrHandlerTimeout = errors.New("events: handler timed out")
	ErrHandlerPanic   = errors.New("events: handler panicked")
)

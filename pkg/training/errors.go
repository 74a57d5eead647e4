package training

import "errors"

var (
	// ErrInvalidExample is returned for examples without a user agent or with a malformed pattern.
	ErrInvalidExample = errors.New("training: invalid example")

	// ErrRecorderFailure wraps storage errors of a Recorder.
	ErrRecorderFailure = errors.New("training: recorder failure")
)

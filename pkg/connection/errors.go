package connection

import "errors"

var (
	// ErrNotFound is returned when no record exists for a connection id.
	ErrNotFound = errors.New("connection: not found")

	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("connection: validation failed")
)

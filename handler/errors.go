package handler

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNilResponse indicates a handler returned nil instead of a Response.
	ErrNilResponse = errors.New("handler returned nil response")
	// ErrNotApplicable is returned by binders that have nothing to bind for a request.
	ErrNotApplicable = errors.New("binder not applicable")
)

// HTTPError is an error with an HTTP status and a machine-readable key.
type HTTPError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

// NewHTTPError creates an HTTPError. An empty message falls back to the status text.
func NewHTTPError(code int, key, message string) HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return HTTPError{Code: code, Key: key, Message: message}
}

// Wrap attaches the underlying cause.
func (e HTTPError) Wrap(err error) HTTPError {
	e.Err = err
	return e
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e HTTPError) Unwrap() error { return e.Err }

// ValidationError maps field names to problems with them.
type ValidationError map[string][]string

// Add records a message for field.
func (v ValidationError) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Err returns v as an error, or nil when empty.
func (v ValidationError) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

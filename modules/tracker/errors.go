package tracker

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/conntrack/handler"
	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/signature"
	"github.com/dmitrymomot/conntrack/pkg/training"
)

// toHTTPError maps domain errors onto HTTP statuses. Unmapped errors stay as is
// and render as 500 without leaking their message.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, connection.ErrNotFound):
		return handler.NewHTTPError(http.StatusNotFound, "not_found", "connection not found").Wrap(err)
	case errors.Is(err, signature.ErrEntryNotFound):
		return handler.NewHTTPError(http.StatusNotFound, "not_found", err.Error()).Wrap(err)
	case errors.Is(err, connection.ErrValidation),
		errors.Is(err, training.ErrInvalidExample),
		errors.Is(err, signature.ErrInvalidPattern),
		errors.Is(err, signature.ErrUnknownCategory):
		return handler.NewHTTPError(http.StatusBadRequest, "validation_error", err.Error()).Wrap(err)
	case errors.Is(err, signature.ErrUnavailable):
		return handler.NewHTTPError(http.StatusServiceUnavailable, "unavailable", "signature catalog is not available").Wrap(err)
	}
	return err
}

func fail(err error) handler.Response {
	return handler.JSONError(toHTTPError(err))
}

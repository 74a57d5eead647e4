package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/conntrack/pkg/logger"
	"github.com/dmitrymomot/conntrack/pkg/requestid"
)

// HandlerFunc handles a request already bound into R.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response renders itself to the client.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind fills v from the request. Binders return ErrNotApplicable to be skipped.
type Bind func(r *http.Request, v any) error

// ErrorHandler writes a response for an error returned while binding or rendering.
type ErrorHandler func(ctx Context, err error)

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	binders      []Bind
	errorHandler ErrorHandler
}

// WithBinders sets request binders applied in order.
func WithBinders(binders ...Bind) WrapOption {
	return func(c *wrapConfig) { c.binders = append(c.binders, binders...) }
}

// WithErrorHandler replaces the default JSON error handler.
func WithErrorHandler(h ErrorHandler) WrapOption {
	return func(c *wrapConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// Wrap converts a typed handler into an http.HandlerFunc.
//
//	r.Post("/track", handler.Wrap(h.track, handler.WithBinders(handler.BindJSON())))
func Wrap[R any](h HandlerFunc[R], opts ...WrapOption) http.HandlerFunc {
	cfg := &wrapConfig{errorHandler: NewErrorHandler(nil)}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				if errors.Is(err, ErrNotApplicable) {
					continue
				}
				cfg.errorHandler(ctx, err)
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}

// NewErrorHandler renders errors as JSON envelopes. Client errors are logged at
// warn level and server errors at error level.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx Context, err error) {
		r := ctx.Request()
		resp := JSONError(err).(*jsonResponse)

		level := slog.LevelError
		if resp.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("handler"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error", logger.Error(renderErr))
		}
	}
}

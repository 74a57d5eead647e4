package events

import (
	"context"

	"github.com/dmitrymomot/conntrack/pkg/connection"
)

// Handler observes connection transitions.
// A returned error is logged and never reaches the store or other handlers.
type Handler interface {
	Handle(ctx context.Context, rec connection.Record) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, rec connection.Record) error

// Handle calls f(ctx, rec).
func (f HandlerFunc) Handle(ctx context.Context, rec connection.Record) error {
	return f(ctx, rec)
}

package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one request-scoped attribute out of ctx.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// ContextHandler is a slog.Handler that appends extractor output to each record
// before passing it on.
type ContextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewContextHandler wraps next. Nil extractors are dropped.
func NewContextHandler(next slog.Handler, extractors ...ContextExtractor) *ContextHandler {
	h := &ContextHandler{next: next}
	for _, ex := range extractors {
		if ex != nil {
			h.extractors = append(h.extractors, ex)
		}
	}
	return h
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, ex := range h.extractors {
			if attr, ok := ex(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}

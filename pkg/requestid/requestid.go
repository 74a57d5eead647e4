package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/conntrack/pkg/logger"
)

// Header carries the request ID in both directions.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type contextKey struct{}

// WithContext stores a request ID in ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware reuses a well-formed incoming X-Request-ID or generates a UUID,
// stores it in the request context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !valid(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// LoggerExtractor adds the request ID to every record logged with the request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}

func valid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}

package clientip

import "context"

type contextKey struct{}

// WithContext stores the client IP in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the client IP stored by the middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

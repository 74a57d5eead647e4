package clientip

import "net/http"

// Middleware stores the resolved client IP in the request context.
func Middleware(res *Resolver) func(http.Handler) http.Handler {
	if res == nil {
		res = defaultResolver
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), res.Resolve(r))))
		})
	}
}

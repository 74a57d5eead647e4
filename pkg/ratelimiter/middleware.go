package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the limiter key from a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// DeniedFunc writes the response for a rejected request.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, res Result)

// Middleware limits requests per key and sets X-RateLimit-* headers.
// Store failures let the request through.
func Middleware(b *Bucket, key KeyFunc, denied DeniedFunc) func(http.Handler) http.Handler {
	if denied == nil {
		denied = func(w http.ResponseWriter, _ *http.Request, _ Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), k)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if retry := res.RetryAfter(time.Now()); retry > 0 {
					h.Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second)/time.Second)))
				}
				denied(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package clientip

import (
	"net"
	"net/http"
	"strings"
)

// DefaultHeaders are consulted in order before falling back to RemoteAddr.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// Resolver extracts the originating client address of a request.
type Resolver struct {
	headers []string
}

// NewResolver returns a resolver that trusts the given headers in order.
// Without headers it trusts DefaultHeaders; pass an empty non-nil slice to trust none.
func NewResolver(headers []string) *Resolver {
	if headers == nil {
		headers = DefaultHeaders
	}
	return &Resolver{headers: headers}
}

// Resolve returns the normalized client IP, or "" when nothing parses.
// Comma-separated headers yield their first valid address.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for part := range strings.SplitSeq(v, ",") {
			if ip := Normalize(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return Normalize(r.RemoteAddr)
	}
	return Normalize(host)
}

// GetIP resolves the client IP with DefaultHeaders.
func GetIP(r *http.Request) string {
	return defaultResolver.Resolve(r)
}

var defaultResolver = NewResolver(nil)

// Normalize validates an address and returns its canonical form, or "" if invalid.
// IPv6 zones and brackets are rejected.
func Normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

package geo

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var (
	ErrInvalidIP = errors.New("geo: invalid ip address")
	ErrLookup    = errors.New("geo: lookup failed")
)

// Locator resolves an IP address to an ISO 3166-1 alpha-2 country code.
// An empty code with a nil error means the address is not in the database.
type Locator interface {
	Country(ctx context.Context, ip string) (string, error)
}

// Noop never resolves anything.
type Noop struct{}

// Country always returns an empty code.
func (Noop) Country(context.Context, string) (string, error) { return "", nil }

// MaxMind looks addresses up in a GeoIP2 or GeoLite2 Country/City database.
type MaxMind struct {
	reader *geoip2.Reader
}

// Open loads a .mmdb database from path.
func Open(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &MaxMind{reader: reader}, nil
}

// Country returns the country code of ip.
func (m *MaxMind) Country(_ context.Context, ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return "", nil
	}

	record, err := m.reader.Country(parsed)
	if err != nil {
		return "", errors.Join(ErrLookup, err)
	}
	return record.Country.IsoCode, nil
}

// Close releases the database.
func (m *MaxMind) Close() error {
	return m.reader.Close()
}

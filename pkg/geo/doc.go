// Package geo resolves client addresses to countries for connection records.
//
// MaxMind reads a local GeoIP2 or GeoLite2 database; Noop is used when no
// database is configured. Lookup failures are never fatal to tracking: callers
// log them and store the record without a country.
package geo

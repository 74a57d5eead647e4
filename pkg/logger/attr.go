package logger

import (
	"log/slog"
	"time"
)

// Attribute keys shared by every package, so records can be filtered uniformly.
const (
	KeyError          = "error"
	KeyRequestID      = "request_id"
	KeyConnectionID   = "connection_id"
	KeyIP             = "ip"
	KeyClient         = "client"
	KeyCategory       = "category"
	KeyEntry          = "entry"
	KeyCatalogVersion = "catalog_version"
	KeyCount          = "count"
	KeyDuration       = "duration"
	KeyComponent      = "component"
	KeyEvent          = "event"
	KeyHandler        = "handler"
)

// Error returns an empty Attr for a nil err, so it can be passed unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// RequestID returns an empty Attr for an empty id.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String(KeyRequestID, id)
}

func ConnectionID(id string) slog.Attr { return slog.String(KeyConnectionID, id) }

func IP(ip string) slog.Attr { return slog.String(KeyIP, ip) }

// Client takes a short client label such as "Safari (iOS 17, Apple)".
func Client(desc string) slog.Attr { return slog.String(KeyClient, desc) }

func Category(cat string) slog.Attr { return slog.String(KeyCategory, cat) }

// Entry names a catalog entry within its category.
func Entry(name string) slog.Attr { return slog.String(KeyEntry, name) }

func CatalogVersion(v uint64) slog.Attr { return slog.Uint64(KeyCatalogVersion, v) }

func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }

func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }

func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

func Event(name string) slog.Attr { return slog.String(KeyEvent, name) }

func Handler(name string) slog.Attr { return slog.String(KeyHandler, name) }

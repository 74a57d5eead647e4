package connection

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/conntrack/pkg/classifier"
)

// DefaultUsername is assigned to records that never had a username set.
const DefaultUsername = "Anonymous"

// Record is the tracked state of one client connection.
type Record struct {
	ID             string                     `json:"id"`
	IP             string                     `json:"ip"`
	UserAgent      string                     `json:"userAgent"`
	Username       string                     `json:"username"`
	ConnectedAt    time.Time                  `json:"connectedAt"`
	DisconnectedAt *time.Time                 `json:"disconnectedAt,omitempty"`
	Connected      bool                       `json:"connected"`
	Client         *classifier.Classification `json:"client,omitempty"`
	Country        string                     `json:"country,omitempty"`
}

// Duration is how long the connection lasted, or has lasted so far when still connected.
func (r Record) Duration(now time.Time) time.Duration {
	end := now
	if r.DisconnectedAt != nil {
		end = *r.DisconnectedAt
	}
	if end.Before(r.ConnectedAt) {
		return 0
	}
	return end.Sub(r.ConnectedAt)
}

// FormattedDuration renders Duration as "42s", "3m 12s" or "2h 5m".
func (r Record) FormattedDuration(now time.Time) string {
	secs := int64(r.Duration(now) / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
	}
}

// clone returns a copy sharing no mutable state with r.
func (r Record) clone() Record {
	if r.DisconnectedAt != nil {
		at := *r.DisconnectedAt
		r.DisconnectedAt = &at
	}
	if r.Client != nil {
		c := r.Client.Clone()
		r.Client = &c
	}
	return r
}

// TrackOption enriches a record created or reset by TrackConnect.
type TrackOption func(*Record)

// WithClassification attaches the classified client to the record.
func WithClassification(c classifier.Classification) TrackOption {
	return func(r *Record) {
		c = c.Clone()
		r.Client = &c
	}
}

// WithCountry attaches an ISO country code to the record.
func WithCountry(code string) TrackOption {
	return func(r *Record) {
		r.Country = code
	}
}

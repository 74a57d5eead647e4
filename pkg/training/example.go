package training

import (
	"time"

	"github.com/dmitrymomot/conntrack/pkg/signature"
)

// Example is a user agent labeled with the expected device, browser and OS.
// Patterns optionally extends the labeled entries with explicit new patterns.
type Example struct {
	UserAgent  string                        `json:"userAgent"`
	Device     string                        `json:"device"`
	Browser    string                        `json:"browser"`
	OS         string                        `json:"os"`
	Patterns   map[signature.Category]string `json:"patterns,omitempty"`
	ReceivedAt time.Time                     `json:"receivedAt"`
}

// Label returns the example's label for a category.
func (e Example) Label(cat signature.Category) string {
	switch cat {
	case signature.CategoryDevice:
		return e.Device
	case signature.CategoryBrowser:
		return e.Browser
	case signature.CategoryOS:
		return e.OS
	}
	return ""
}

// Status describes what happened to one category of an example.
type Status string

const (
	StatusReinforced Status = "reinforced"
	StatusUnchanged  Status = "unchanged" // entry found, already at the bound
	StatusIgnored    Status = "ignored"   // no entry with that name
	StatusNoLabel    Status = "no_label"
)

// Outcome is the per-category result of a submission.
type Outcome struct {
	Category     signature.Category `json:"category"`
	Label        string             `json:"label,omitempty"`
	Status       Status             `json:"status"`
	Confidence   float64            `json:"confidence,omitempty"`
	PatternAdded bool               `json:"patternAdded,omitempty"`
}

// Ack echoes a stored example together with what it changed.
type Ack struct {
	Example        Example   `json:"example"`
	Outcomes       []Outcome `json:"outcomes"`
	CatalogVersion uint64    `json:"catalogVersion"`
}

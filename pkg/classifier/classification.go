package classifier

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/conntrack/pkg/signature"
)

// AmbiguityThreshold is the confidence below which a category is considered uncertain.
const AmbiguityThreshold = 0.5

// Choice is the selected entry of one category.
type Choice struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Known reports whether the choice is a catalog entry rather than the Unknown sentinel.
func (c Choice) Known() bool { return c.Name != "" && c.Name != signature.Unknown }

// Pick is a choice tagged with its category.
type Pick struct {
	Category   signature.Category `json:"category"`
	Name       string             `json:"name"`
	Confidence float64            `json:"confidence"`
}

// Conflict records an impossible pair that was overridden by demoting one side.
type Conflict struct {
	A       Pick               `json:"a"`
	B       Pick               `json:"b"`
	Demoted signature.Category `json:"demoted"`
}

// Pair is a combination of two final picks.
type Pair struct {
	A Pick `json:"a"`
	B Pick `json:"b"`
}

// Classification is the outcome of classifying one user agent against one catalog snapshot.
type Classification struct {
	Device         Choice     `json:"device"`
	Browser        Choice     `json:"browser"`
	OS             Choice     `json:"os"`
	OSVersion      string     `json:"osVersion,omitempty"`
	Ambiguous      bool       `json:"ambiguous"`
	Conflicts      []Conflict `json:"conflicts"`
	Unusual        []Pair     `json:"unusual,omitempty"`
	CatalogVersion uint64     `json:"catalogVersion"`
}

// Get returns the choice for a category.
func (c Classification) Get(cat signature.Category) Choice {
	switch cat {
	case signature.CategoryDevice:
		return c.Device
	case signature.CategoryBrowser:
		return c.Browser
	case signature.CategoryOS:
		return c.OS
	}
	return Choice{Name: signature.Unknown}
}

func (c *Classification) set(cat signature.Category, ch Choice) {
	switch cat {
	case signature.CategoryDevice:
		c.Device = ch
	case signature.CategoryBrowser:
		c.Browser = ch
	case signature.CategoryOS:
		c.OS = ch
	}
}

// IsBot reports whether the device was classified as an automated client.
func (c Classification) IsBot() bool { return c.Device.Name == "Bot" }

// ShortIdentifier renders a compact label for logs, e.g. "Safari (iOS 17, Apple)".
func (c Classification) ShortIdentifier() string {
	if c.IsBot() {
		return "Bot"
	}
	if !c.Device.Known() && !c.Browser.Known() && !c.OS.Known() {
		return "Unknown device"
	}

	os := c.OS.Name
	if c.OSVersion != "" {
		os += " " + c.OSVersion
	}
	details := []string{os}
	if c.Device.Known() {
		details = append(details, c.Device.Name)
	}
	return fmt.Sprintf("%s (%s)", c.Browser.Name, strings.Join(details, ", "))
}

// Clone returns a copy that shares no slices with c.
func (c Classification) Clone() Classification {
	c.Conflicts = slices.Clone(c.Conflicts)
	c.Unusual = slices.Clone(c.Unusual)
	return c
}

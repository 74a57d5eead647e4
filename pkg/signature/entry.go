package signature

import (
	"errors"
	"fmt"
	"slices"
)

// MaxConfidence caps every base confidence, including reinforced ones.
const MaxConfidence = 0.99

// Associations maps another category to entry names in that category.
type Associations map[Category][]string

// Has reports whether name is listed under cat.
func (a Associations) Has(cat Category, name string) bool {
	return slices.Contains(a[cat], name)
}

// Version maps a human version name to the token that identifies it.
type Version struct {
	Name  string `json:"name" yaml:"name"`
	Token string `json:"token" yaml:"token"`
}

// Entry is one device brand, browser or operating system signature.
type Entry struct {
	Name           string       `json:"name"`
	Category       Category     `json:"category"`
	Patterns       []Matcher    `json:"patterns"`
	BaseConfidence float64      `json:"baseConfidence"`
	Floor          float64      `json:"floor"`
	Common         Associations `json:"common,omitempty"`
	Unusual        Associations `json:"unusual,omitempty"`
	Impossible     Associations `json:"impossible,omitempty"`

	// Descriptive fields, shown in registry exports.
	DeviceType string    `json:"deviceType,omitempty"`
	Models     []string  `json:"models,omitempty"`
	Vendor     string    `json:"vendor,omitempty"`
	Engine     string    `json:"engine,omitempty"`
	Versions   []Version `json:"versions,omitempty"`
}

// Matches reports whether any pattern of the entry matches the normalized UA.
func (e Entry) Matches(normalizedUA string) bool {
	return matchAny(e.Patterns, normalizedUA)
}

// MatchVersion returns the first version whose token appears in the normalized UA.
func (e Entry) MatchVersion(normalizedUA string) string {
	for _, v := range e.Versions {
		if Substring(Normalize(v.Token)).Match(normalizedUA) {
			return v.Name
		}
	}
	return ""
}

// clone copies the slices a writer may replace so snapshots never share mutable state.
func (e Entry) clone() Entry {
	e.Patterns = slices.Clone(e.Patterns)
	e.Models = slices.Clone(e.Models)
	e.Versions = slices.Clone(e.Versions)
	return e
}

func (e Entry) validate() error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if e.Name == Unknown {
		errs = append(errs, fmt.Errorf("name %q is reserved", Unknown))
	}
	if !e.Category.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category))
	}
	if len(e.Patterns) == 0 {
		errs = append(errs, errors.New("at least one pattern is required"))
	}
	for i, p := range e.Patterns {
		if p == nil || p.String() == "" {
			errs = append(errs, fmt.Errorf("pattern %d is empty", i))
		}
	}
	if e.BaseConfidence < 0 || e.BaseConfidence > MaxConfidence {
		errs = append(errs, fmt.Errorf("base confidence %.2f outside [0, %.2f]", e.BaseConfidence, MaxConfidence))
	}
	for _, assoc := range []Associations{e.Common, e.Unusual, e.Impossible} {
		for cat := range assoc {
			if !cat.Valid() {
				errs = append(errs, fmt.Errorf("association %w: %q", ErrUnknownCategory, cat))
			}
			if cat == e.Category {
				errs = append(errs, fmt.Errorf("association targets own category %q", cat))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %s/%s: %w", ErrInvalidEntry, e.Category, e.Name, errors.Join(errs...))
}

package signature

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RegexPrefix marks a raw pattern as a regular expression instead of a substring.
const RegexPrefix = "re:"

// Matcher decides whether a normalized user-agent string carries a signature.
// Implementations must be immutable and safe for concurrent use.
type Matcher interface {
	Match(normalizedUA string) bool
	String() string
}

// Normalize lowercases s the same way for patterns and user agents.
// A new Caser is created per call because cases.Caser is stateful.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Substring matches when the normalized user agent contains the token.
type Substring string

func (s Substring) Match(ua string) bool { return strings.Contains(ua, string(s)) }

func (s Substring) String() string { return string(s) }

// Regex matches a compiled expression against the normalized user agent.
// The expression is compiled case-insensitively, like substrings.
type Regex struct {
	re   *regexp.Regexp
	expr string
}

func (r Regex) Match(ua string) bool { return r.re.MatchString(ua) }

// String returns the expression as written, without the case-insensitive flag.
func (r Regex) String() string { return RegexPrefix + r.expr }

// MarshalText keeps the "re:" prefix so exported catalogs round-trip.
func (r Regex) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ParsePattern turns a raw catalog pattern into a Matcher.
// Plain strings become substrings and "re:" strings become regexes; both match case-insensitively.
func ParsePattern(raw string) (Matcher, error) {
	if expr, ok := strings.CutPrefix(raw, RegexPrefix); ok {
		if expr == "" {
			return nil, fmt.Errorf("%w: empty regular expression", ErrInvalidPattern)
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return Regex{re: re, expr: expr}, nil
	}

	token := Normalize(strings.TrimSpace(raw))
	if token == "" {
		return nil, fmt.Errorf("%w: empty substring", ErrInvalidPattern)
	}
	return Substring(token), nil
}

// Substrings is a convenience constructor for built-in catalogs.
func Substrings(tokens ...string) []Matcher {
	out := make([]Matcher, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, Substring(Normalize(t)))
	}
	return out
}

// MustRegex compiles expr or panics. Intended for package-level catalogs.
func MustRegex(expr string) Matcher {
	m, err := ParsePattern(RegexPrefix + expr)
	if err != nil {
		panic(err)
	}
	return m
}

func matchAny(ms []Matcher, ua string) bool {
	for _, m := range ms {
		if m.Match(ua) {
			return true
		}
	}
	return false
}

func containsPattern(ms []Matcher, m Matcher) bool {
	for _, existing := range ms {
		if existing.String() == m.String() {
			return true
		}
	}
	return false
}

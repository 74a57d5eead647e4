package classifier

import (
	"github.com/dmitrymomot/conntrack/pkg/signature"
)

// categoryPairs lists every pair of category indexes checked for conflicts, in a fixed order.
var categoryPairs = [][2]int{{0, 1}, {0, 2}, {1, 2}}

// Classify maps a raw user agent to a device, browser and OS using a catalog snapshot.
// It is a pure function of its inputs and never fails: missing data yields
// Unknown choices with zero confidence. A nil snapshot classifies everything as Unknown.
func Classify(snap *signature.Snapshot, userAgent string) Classification {
	cats := signature.Categories
	ua := signature.Normalize(userAgent)

	candidates := make([][]signature.Candidate, len(cats))
	pos := make([]int, len(cats))
	if snap != nil {
		for i, cat := range cats {
			candidates[i] = snap.MatchCandidates(cat, ua)
		}
	}

	pick := func(i int) Pick {
		if pos[i] < len(candidates[i]) {
			c := candidates[i][pos[i]]
			return Pick{Category: cats[i], Name: c.Name, Confidence: c.Confidence}
		}
		return Pick{Category: cats[i], Name: signature.Unknown}
	}

	result := Classification{Conflicts: []Conflict{}}
	demoted := false

	// Every demotion advances one position, so the loop ends once conflicts are gone
	// or candidate lists are exhausted.
	for snap != nil {
		conflict, loser, found := firstConflict(snap, pick)
		if !found {
			break
		}
		result.Conflicts = append(result.Conflicts, conflict)
		pos[loser]++
		demoted = true
	}

	final := make([]Pick, len(cats))
	for i := range cats {
		final[i] = pick(i)
		result.set(cats[i], Choice{Name: final[i].Name, Confidence: final[i].Confidence})
		if final[i].Confidence < AmbiguityThreshold {
			result.Ambiguous = true
		}
	}
	if demoted {
		result.Ambiguous = true
	}

	if snap == nil {
		return result
	}
	result.CatalogVersion = snap.Version()

	if result.OS.Known() {
		if e, ok := snap.Lookup(signature.CategoryOS, result.OS.Name); ok {
			result.OSVersion = e.MatchVersion(ua)
		}
	}

	for _, p := range categoryPairs {
		a, b := final[p[0]], final[p[1]]
		if a.Name == signature.Unknown || b.Name == signature.Unknown {
			continue
		}
		if snap.Unusual(a.Category, a.Name, b.Category, b.Name) {
			result.Unusual = append(result.Unusual, Pair{A: a, B: b})
		}
	}

	return result
}

// firstConflict finds the first impossible pair among current picks and the index to demote.
// The lower-confidence side loses; on a tie the later category of the pair loses.
func firstConflict(snap *signature.Snapshot, pick func(int) Pick) (Conflict, int, bool) {
	for _, p := range categoryPairs {
		a, b := pick(p[0]), pick(p[1])
		if a.Name == signature.Unknown || b.Name == signature.Unknown {
			continue
		}
		if !snap.Impossible(a.Category, a.Name, b.Category, b.Name) {
			continue
		}
		loser := p[1]
		if a.Confidence < b.Confidence {
			loser = p[0]
		}
		return Conflict{A: a, B: b, Demoted: pick(loser).Category}, loser, true
	}
	return Conflict{}, 0, false
}

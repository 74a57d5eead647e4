// Package signature holds the rule catalog used to classify user-agent strings.
//
// A catalog is a set of typed entries, one per device brand, browser or
// operating system. Each entry carries ordered match patterns, a base
// confidence and cross-category annotations:
//
//   - Common: combinations that are considered normal.
//   - Unusual: combinations that are legal but worth flagging.
//   - Impossible: combinations that must never be reported together.
//
// Impossible annotations are symmetric at query time: if either side declares
// the other impossible, the pair is impossible.
//
// # Matching
//
// Patterns are Matcher values. Plain strings are case-insensitive substrings;
// strings prefixed with "re:" are regular expressions evaluated against the
// normalized (lowercased) user agent. MatchCandidates returns one candidate per
// matching entry, ordered by descending confidence with registration order
// breaking ties.
//
// # Concurrency
//
// Readers work on immutable snapshots loaded from an atomic pointer and never
// wait on writers. Reinforce and AddPattern serialize on a mutex, copy the
// affected entry and publish a new snapshot with an incremented version.
//
// # Usage
//
//	catalog := signature.NewDefault()
//	snap, _ := catalog.Snapshot()
//	candidates := snap.MatchCandidates(signature.CategoryBrowser, signature.Normalize(ua))
//
// Catalogs can also be loaded from YAML with Load or Parse.
package signature

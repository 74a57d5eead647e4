// Package classifier maps raw user-agent strings to a device, browser and
// operating system using a signature catalog.
//
// Classification is total and deterministic: for a given user agent and
// catalog snapshot it always returns the same value and never an error.
// Uncertainty is expressed through per-category confidence, the Ambiguous flag
// and the list of Conflicts that were overridden.
//
// Algorithm:
//
//  1. Lowercase the user agent once.
//  2. Collect candidates per category; no match yields Unknown with confidence 0.
//  3. Take the top candidate of each category.
//  4. While two picks declare each other impossible, demote the lower-confidence
//     side to its next candidate and record the conflict.
//  5. Mark the result ambiguous if any demotion happened or any confidence is
//     below AmbiguityThreshold.
//
// Classifier wraps the pure Classify function with an LRU cache keyed by the
// catalog version and the raw user agent.
package classifier

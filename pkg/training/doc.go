// Package training adjusts the signature catalog from labeled examples.
//
// Submit looks up each labeled device, browser and OS by exact name. A known
// entry gets its confidence raised by a fixed delta (bounded by the catalog);
// an unknown label is logged and skipped, so training never creates entries.
// When the caller supplies an explicit pattern for a category, it is appended
// to the labeled entry if not already present.
//
// Every accepted example is kept by a Recorder: MemoryRecorder by default or
// RedisRecorder when a Redis connection is configured. Recorder failures are
// logged and never fail a submission.
package training

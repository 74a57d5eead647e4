// Package tracking is the entry point used by transports to record client connections.
//
// Track validates the address, generates a connection id when none is given,
// classifies the user agent once, looks up the country and upserts the record
// in the connection store. The remaining methods pass through to the store.
package tracking

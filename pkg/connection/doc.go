// Package connection keeps the registry of client connections.
//
// A Store holds one Record per connection id. TrackConnect creates or resets a
// record, TrackDisconnect stamps it, and EvictOlderThan drops records that have
// been disconnected for longer than a retention window. Connected records are
// never evicted.
//
//	store := connection.NewStore(connection.WithNotifier(bus))
//	rec, err := store.TrackConnect(id, ip, userAgent,
//		connection.WithClassification(cls.Classify(userAgent)),
//	)
//
// All methods are safe for concurrent use. Mutations hold an exclusive lock and
// queries a shared one; nothing under the lock performs I/O. Events reach the
// Notifier in the order their mutations completed.
package connection

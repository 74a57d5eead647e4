// Package events delivers connection lifecycle notifications.
//
// The store publishes every connect and disconnect to a Bus. Publishing is a
// non-blocking append to an ordered queue; one dispatcher goroutine started with
// Start (or Run inside an errgroup) delivers the queued events in order. Each
// handler call is bounded by a timeout, and a handler that errors, panics or
// times out is logged without affecting the others.
//
//	bus := events.NewBus(events.WithLogger(log))
//	bus.SubscribeConnect(events.HandlerFunc(func(ctx context.Context, rec connection.Record) error {
//		log.InfoContext(ctx, "connected", logger.ConnectionID(rec.ID))
//		return nil
//	}))
//	store := connection.NewStore(connection.WithNotifier(bus))
//	g.Go(bus.Run(ctx))
//
// Stream is a handler that fans events out to live subscribers, used for the
// server-sent event feed. Slow subscribers are dropped rather than slowing the
// dispatcher down.
package events

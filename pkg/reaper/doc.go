// Package reaper runs the periodic eviction of disconnected connections.
//
//	r := reaper.New(store,
//		reaper.WithInterval(cfg.ReaperInterval),
//		reaper.WithRetention(cfg.ConnectionRetention),
//		reaper.WithLogger(log),
//	)
//	g.Go(r.Run(ctx))
package reaper

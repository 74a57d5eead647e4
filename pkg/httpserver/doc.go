// Package httpserver runs an http.Handler with graceful shutdown.
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// Run returns once ctx is cancelled and in-flight requests have finished or
// the shutdown timeout elapsed. The write timeout defaults to zero so that
// server-sent event streams are not cut off; handlers bound their own work.
package httpserver

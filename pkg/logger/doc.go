// Package logger builds the service's *slog.Logger.
//
// New applies functional options, picks a text or JSON handler and wraps it in
// ContextHandler, which pulls request-scoped values such as the request id
// out of the context on every record.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "connection tracked",
//		logger.ConnectionID(rec.ID),
//		logger.Client(rec.Client.ShortIdentifier()),
//	)
//
// The attribute helpers in attr.go keep key names consistent across packages.
// Error and RequestID return an empty attribute for empty input, so they can be
// passed unconditionally. Discard is the default for components built without
// a logger.
package logger

// Package requestid attaches a correlation ID to each HTTP request.
//
// Middleware reuses a client-supplied X-Request-ID when it is short and made
// of [a-zA-Z0-9_-]; otherwise it generates a UUID. Register LoggerExtractor
// with logger.WithContextExtractors so request-scoped log lines carry the ID.
package requestid

package tracker

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/conntrack/handler"
	"github.com/dmitrymomot/conntrack/pkg/clientip"
	"github.com/dmitrymomot/conntrack/pkg/events"
	"github.com/dmitrymomot/conntrack/pkg/logger"
	"github.com/dmitrymomot/conntrack/pkg/ratelimiter"
	"github.com/dmitrymomot/conntrack/pkg/requestid"
	"github.com/dmitrymomot/conntrack/pkg/signature"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
	"github.com/dmitrymomot/conntrack/pkg/training"
)

// RouterOptions holds the services behind the HTTP API. Tracking is required;
// everything else is optional and disables the routes that need it.
type RouterOptions struct {
	ServiceName string
	Tracking    *tracking.Service
	Catalog     *signature.Catalog
	Feedback    *training.Feedback
	Bus         *events.Bus
	Stream      *events.Stream

	// HealthChecks are run by GET /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	// RateLimiter throttles mutating endpoints per client IP; nil disables limiting.
	RateLimiter *ratelimiter.Bucket

	// ClientIP selects the trusted proxy headers; nil trusts the defaults.
	ClientIP *clientip.Resolver
	Logger   *slog.Logger
	Now      func() time.Time
}

// Router builds the HTTP API with request id, client ip, panic recovery and access logging.
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//	return srv.Run(ctx, tracker.Router(tracker.RouterOptions{
//		Tracking: svc,
//		Catalog:  catalog,
//		Feedback: feedback,
//		Bus:      bus,
//		Stream:   stream,
//		Logger:   log,
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "conntrack"
	}
	errorHandler := handler.NewErrorHandler(log)

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(opts.ClientIP),
		accessLog(log),
		middleware.Recoverer,
	)

	var writes []func(http.Handler) http.Handler
	if opts.RateLimiter != nil {
		writes = append(writes, ratelimiter.Middleware(opts.RateLimiter, clientKey, rateLimited))
	}

	NewConnectionService(opts.Tracking, errorHandler).Register(r, writes...)
	if opts.Catalog != nil {
		NewRegistryService(opts.Catalog, opts.Tracking, opts.Feedback, errorHandler).Register(r, writes...)
	}
	(&StatusService{
		service:  opts.ServiceName,
		tracking: opts.Tracking,
		catalog:  opts.Catalog,
		bus:      opts.Bus,
		stream:   opts.Stream,
		checks:   opts.HealthChecks,
		logger:   log,
		now:      opts.Now,
	}).Register(r)

	return r
}

func clientKey(r *http.Request) string {
	return clientip.FromContext(r.Context())
}

func rateLimited(w http.ResponseWriter, r *http.Request, _ ratelimiter.Result) {
	err := handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited", "too many requests")
	_ = handler.JSONError(err).Render(w, r)
}

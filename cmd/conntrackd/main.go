package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/conntrack/modules/tracker"
	"github.com/dmitrymomot/conntrack/pkg/classifier"
	"github.com/dmitrymomot/conntrack/pkg/config"
	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/events"
	"github.com/dmitrymomot/conntrack/pkg/geo"
	"github.com/dmitrymomot/conntrack/pkg/httpserver"
	"github.com/dmitrymomot/conntrack/pkg/logger"
	"github.com/dmitrymomot/conntrack/pkg/ratelimiter"
	"github.com/dmitrymomot/conntrack/pkg/reaper"
	"github.com/dmitrymomot/conntrack/pkg/redis"
	"github.com/dmitrymomot/conntrack/pkg/requestid"
	"github.com/dmitrymomot/conntrack/pkg/signature"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
	"github.com/dmitrymomot/conntrack/pkg/training"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("conntrackd stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("conntrackd stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	log.Info("signature catalog loaded",
		logger.CatalogVersion(catalog.Version()),
		slog.String("source", catalogSource(cfg.CatalogPath)),
	)

	bus := events.NewBus(
		events.WithHandlerTimeout(cfg.EventHandlerTimeout),
		events.WithQueueSize(cfg.EventQueueSize),
		events.WithLogger(log.With(logger.Component("events"))),
	)
	stream := events.NewStream(cfg.EventStreamBuffer)
	stream.Attach(bus)
	defer stream.Close()

	bus.SubscribeConnect(events.HandlerFunc(func(ctx context.Context, rec connection.Record) error {
		log.DebugContext(ctx, "connection opened", logger.ConnectionID(rec.ID), logger.IP(rec.IP))
		return nil
	}))
	bus.SubscribeDisconnect(events.HandlerFunc(func(ctx context.Context, rec connection.Record) error {
		log.DebugContext(ctx, "connection closed", logger.ConnectionID(rec.ID), logger.IP(rec.IP))
		return nil
	}))

	store := connection.NewStore(connection.WithNotifier(bus))
	cls := classifier.New(catalog, classifier.WithCacheSize(cfg.ClassifierCacheSize))

	checks := map[string]tracker.HealthCheck{}
	var recorder training.Recorder = training.NewMemoryRecorder(cfg.TrainingHistory)
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		recorder = training.NewRedisRecorder(client, cfg.TrainingRedisKey, cfg.TrainingHistory)
		checks["redis"] = redis.Probe(client, 2*time.Second)
		log.Info("training examples stored in redis", slog.String("key", cfg.TrainingRedisKey))
	}

	trackingOpts := []tracking.Option{tracking.WithLogger(log.With(logger.Component("tracking")))}
	if cfg.GeoIPDBPath != "" {
		db, err := geo.Open(cfg.GeoIPDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		trackingOpts = append(trackingOpts, tracking.WithLocator(db))
	}
	svc := tracking.New(store, cls, trackingOpts...)

	feedback := training.New(catalog,
		training.WithDelta(cfg.TrainingDelta),
		training.WithRecorder(recorder),
		training.WithLogger(log.With(logger.Component("training"))),
	)

	sweeper := reaper.New(store,
		reaper.WithInterval(cfg.ReaperInterval),
		reaper.WithRetention(cfg.ConnectionRetention),
		reaper.WithLogger(log.With(logger.Component("reaper"))),
	)

	var limiter *ratelimiter.Bucket
	limits := ratelimiter.NewMemoryStore()
	if cfg.RateLimitBurst > 0 {
		limiter, err = ratelimiter.NewBucket(limits, ratelimiter.Config{
			Capacity:       cfg.RateLimitBurst,
			RefillRate:     1,
			RefillInterval: cfg.RateLimitRefill,
		})
		if err != nil {
			return err
		}
	}

	router := tracker.Router(tracker.RouterOptions{
		ServiceName:  cfg.ServiceName,
		Tracking:     svc,
		Catalog:      catalog,
		Feedback:     feedback,
		Bus:          bus,
		Stream:       stream,
		HealthChecks: checks,
		RateLimiter:  limiter,
		Logger:       log.With(logger.Component("http")),
	})
	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(bus.Run(ctx))
	eg.Go(sweeper.Run(ctx))
	eg.Go(limits.Run(ctx, cfg.ReaperInterval))
	eg.Go(func() error {
		// Ends live SSE subscriptions so graceful shutdown is not held open by them.
		<-ctx.Done()
		return stream.Close()
	})
	eg.Go(func() error { return srv.Run(ctx, router) })

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadCatalog(path string) (*signature.Catalog, error) {
	if path == "" {
		return signature.NewDefault(), nil
	}
	return signature.Load(path)
}

func catalogSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

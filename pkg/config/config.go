package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/conntrack/pkg/httpserver"
	"github.com/dmitrymomot/conntrack/pkg/logger"
	"github.com/dmitrymomot/conntrack/pkg/redis"
)

// Config is the service configuration read from the environment.
type Config struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"conntrack"`
	LogLevel    string `env:"LOG_LEVEL"` // empty uses the environment default

	HTTP  httpserver.Config
	Redis redis.Config

	ConnectionRetention time.Duration `env:"CONNECTION_RETENTION" envDefault:"48h"`
	ReaperInterval      time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	CatalogPath         string `env:"CATALOG_PATH"` // YAML catalog; empty uses the built-in one
	ClassifierCacheSize int    `env:"CLASSIFIER_CACHE_SIZE" envDefault:"1024"`

	TrainingDelta    float64 `env:"TRAINING_DELTA" envDefault:"0.02"`
	TrainingHistory  int     `env:"TRAINING_HISTORY" envDefault:"500"`
	TrainingRedisKey string  `env:"TRAINING_REDIS_KEY" envDefault:"conntrack:training"`

	EventHandlerTimeout time.Duration `env:"EVENT_HANDLER_TIMEOUT" envDefault:"5s"`
	EventStreamBuffer   int           `env:"EVENT_STREAM_BUFFER" envDefault:"16"`
	EventQueueSize      int           `env:"EVENT_QUEUE_SIZE" envDefault:"4096"`

	GeoIPDBPath string `env:"GEOIP_DB_PATH"` // MaxMind country database; empty disables lookups

	// Write endpoints allow RateLimitBurst requests per client IP, refilled one
	// token per RateLimitRefill. A zero burst disables limiting.
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"120"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"500ms"`
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.ConnectionRetention < 0 {
		errs = append(errs, fmt.Errorf("CONNECTION_RETENTION must not be negative, got %s", c.ConnectionRetention))
	}
	if c.ReaperInterval <= 0 {
		errs = append(errs, fmt.Errorf("REAPER_INTERVAL must be positive, got %s", c.ReaperInterval))
	}
	if c.ClassifierCacheSize < 0 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_CACHE_SIZE must not be negative, got %d", c.ClassifierCacheSize))
	}
	if c.TrainingDelta <= 0 || c.TrainingDelta > 1 {
		errs = append(errs, fmt.Errorf("TRAINING_DELTA must be in (0, 1], got %g", c.TrainingDelta))
	}
	if c.TrainingHistory <= 0 {
		errs = append(errs, fmt.Errorf("TRAINING_HISTORY must be positive, got %d", c.TrainingHistory))
	}
	if c.Redis.Enabled() && c.TrainingRedisKey == "" {
		errs = append(errs, errors.New("TRAINING_REDIS_KEY is required when REDIS_URL is set"))
	}
	if c.EventHandlerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("EVENT_HANDLER_TIMEOUT must be positive, got %s", c.EventHandlerTimeout))
	}
	if c.EventQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", c.EventQueueSize))
	}
	if c.EventStreamBuffer <= 0 {
		errs = append(errs, fmt.Errorf("EVENT_STREAM_BUFFER must be positive, got %d", c.EventStreamBuffer))
	}
	if c.RateLimitBurst < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must not be negative, got %d", c.RateLimitBurst))
	}
	if c.RateLimitBurst > 0 && c.RateLimitRefill <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_REFILL_INTERVAL must be positive, got %s", c.RateLimitRefill))
	}
	if _, ok := logger.ParseLevel(c.LogLevel); c.LogLevel != "" && !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not a known level", c.LogLevel))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool { return logger.IsProduction(c.Env) }

package redis

import "time"

// Config describes an optional Redis connection. An empty URL means Redis is not used.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                             // e.g. "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`   // connection attempts before giving up
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`  // pause between attempts
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"` // overall connect deadline
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool { return c.ConnectionURL != "" }

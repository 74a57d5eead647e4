package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a client and pings it, retrying up to cfg.RetryAttempts times
// with cfg.RetryInterval between attempts, all within cfg.ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := range max(cfg.RetryAttempts, 1) {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrNotReady, ctx.Err())
			case <-time.After(cfg.RetryInterval):
			}
		}

		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()
	}

	return nil, errors.Join(ErrNotReady, lastErr)
}

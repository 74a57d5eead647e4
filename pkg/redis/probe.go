package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probe returns a health check that pings client. A positive timeout bounds
// each ping independently of the caller's deadline.
func Probe(client redis.UniversalClient, timeout time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conntrack/pkg/redis"
)

func TestConnectRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyURL)
	assert.False(t, redis.Config{}.Enabled())

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://nope"})
	assert.ErrorIs(t, err, redis.ErrInvalidURL)
}

func TestConnectGivesUp(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrNotReady)
}

func TestConnectAndProbe(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, redis.Probe(client, time.Second)(context.Background()))
}

func TestProbeReportsUnreachableServer(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	err := redis.Probe(client, 200*time.Millisecond)(context.Background())
	assert.ErrorIs(t, err, redis.ErrUnhealthy)
}

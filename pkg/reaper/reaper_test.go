package reaper_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/reaper"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type flakySweeper struct {
	calls atomic.Int32
}

func (s *flakySweeper) Sweep(context.Context, time.Duration) (int, error) {
	switch s.calls.Add(1) {
	case 1:
		return 0, errors.New("store busy")
	case 2:
		panic("unexpected")
	default:
		return 1, nil
	}
}

func TestTickEvictsFromStore(t *testing.T) {
	t.Parallel()

	store := connection.NewStore()
	_, _ = store.TrackConnect("gone", "10.0.0.1", "ua")
	_, _ = store.TrackDisconnect("gone")
	_, _ = store.TrackConnect("live", "10.0.0.1", "ua")

	r := reaper.New(store, reaper.WithRetention(0))
	n, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, 1, store.ActiveCount())
}

func TestTickReportsFailures(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	r := reaper.New(&flakySweeper{}, reaper.WithLogger(slog.New(slog.NewTextHandler(logs, nil))))

	_, err := r.Tick(context.Background())
	assert.Error(t, err)
	_, err = r.Tick(context.Background())
	assert.ErrorContains(t, err, "panicked")
	n, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := logs.String()
	assert.Contains(t, out, "store busy")
	assert.Contains(t, out, "unexpected")
}

func TestStartKeepsTickingAfterFailures(t *testing.T) {
	t.Parallel()

	sweeper := &flakySweeper{}
	r := reaper.New(sweeper, reaper.WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunReturnsNilOnCancel(t *testing.T) {
	t.Parallel()

	r := reaper.New(connection.NewStore(), reaper.WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Run(ctx)())
}

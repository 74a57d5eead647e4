package connection_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conntrack/pkg/classifier"
	"github.com/dmitrymomot/conntrack/pkg/connection"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTrackConnect(t *testing.T) {
	t.Parallel()

	t.Run("creates record with defaults", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		s := connection.NewStore(connection.WithClock(clock.Now))

		rec, err := s.TrackConnect("c1", "10.0.0.1", "ua", connection.WithCountry("DE"))
		require.NoError(t, err)
		assert.Equal(t, "c1", rec.ID)
		assert.Equal(t, "10.0.0.1", rec.IP)
		assert.Equal(t, connection.DefaultUsername, rec.Username)
		assert.True(t, rec.Connected)
		assert.Nil(t, rec.DisconnectedAt)
		assert.Equal(t, clock.Now(), rec.ConnectedAt)
		assert.Equal(t, "DE", rec.Country)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		s := connection.NewStore()

		_, err := s.TrackConnect("", "10.0.0.1", "ua")
		assert.ErrorIs(t, err, connection.ErrValidation)
		_, err = s.TrackConnect("c1", "  ", "ua")
		assert.ErrorIs(t, err, connection.ErrValidation)
		assert.Zero(t, s.Count())
	})

	t.Run("re-track resets connection fields and keeps username", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		s := connection.NewStore(connection.WithClock(clock.Now))

		_, err := s.TrackConnect("c1", "10.0.0.1", "ua-1", connection.WithCountry("DE"))
		require.NoError(t, err)
		_, err = s.UpdateUsername("c1", "alice")
		require.NoError(t, err)
		clock.Advance(time.Minute)
		_, err = s.TrackDisconnect("c1")
		require.NoError(t, err)
		clock.Advance(time.Minute)

		rec, err := s.TrackConnect("c1", "10.0.0.2", "ua-2")
		require.NoError(t, err)
		assert.True(t, rec.Connected)
		assert.Nil(t, rec.DisconnectedAt)
		assert.Equal(t, clock.Now(), rec.ConnectedAt)
		assert.Equal(t, "10.0.0.2", rec.IP)
		assert.Equal(t, "ua-2", rec.UserAgent)
		assert.Equal(t, "alice", rec.Username)
		assert.Empty(t, rec.Country)
		assert.Equal(t, 1, s.Count())

		assert.Empty(t, s.ByIP("10.0.0.1"))
		assert.Len(t, s.ByIP("10.0.0.2"), 1)
	})

	t.Run("attaches classification copy", func(t *testing.T) {
		t.Parallel()
		s := connection.NewStore()
		cls := classifier.Classification{
			Device:    classifier.Choice{Name: "Apple", Confidence: 0.9},
			Conflicts: []classifier.Conflict{},
		}

		rec, err := s.TrackConnect("c1", "10.0.0.1", "ua", connection.WithClassification(cls))
		require.NoError(t, err)
		require.NotNil(t, rec.Client)
		rec.Client.Device.Name = "tampered"

		got, err := s.Get("c1")
		require.NoError(t, err)
		assert.Equal(t, "Apple", got.Client.Device.Name)
	})
}

func TestTrackConnectManyIDs(t *testing.T) {
	t.Parallel()

	s := connection.NewStore()
	for i := range 20 {
		_, err := s.TrackConnect(fmt.Sprintf("c%d", i), "10.0.0.1", "ua")
		require.NoError(t, err)
	}
	assert.Equal(t, 20, s.Count())
	assert.Equal(t, 20, s.ActiveCount())
	assert.Len(t, s.ByIP("10.0.0.1"), 20)
}

func TestConcurrentTrackConnect(t *testing.T) {
	t.Parallel()

	s := connection.NewStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TrackConnect(fmt.Sprintf("conn-%d", i), fmt.Sprintf("10.0.0.%d", i%5), "ua")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Count())
	assert.Equal(t, 50, s.ActiveCount())
}

func TestConcurrentMixedOperations(t *testing.T) {
	t.Parallel()

	s := connection.NewStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i%4)
			for range 25 {
				_, _ = s.TrackConnect(id, "10.0.0.1", "ua")
				_, _ = s.UpdateUsername(id, "user")
				rec, err := s.TrackDisconnect(id)
				if assert.NoError(t, err) {
					assert.False(t, rec.Connected)
					assert.NotNil(t, rec.DisconnectedAt)
				}
				_ = s.Active()
				_ = s.EvictOlderThan(time.Hour)
			}
		}()
	}
	wg.Wait()

	for _, rec := range s.All() {
		assert.Equal(t, rec.Connected, rec.DisconnectedAt == nil)
	}
	assert.LessOrEqual(t, s.Count(), 4)
}

func TestTrackDisconnect(t *testing.T) {
	t.Parallel()

	t.Run("stamps disconnect", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		s := connection.NewStore(connection.WithClock(clock.Now))

		connected, err := s.TrackConnect("c1", "10.0.0.1", "ua")
		require.NoError(t, err)
		clock.Advance(90 * time.Second)

		rec, err := s.TrackDisconnect("c1")
		require.NoError(t, err)
		assert.False(t, rec.Connected)
		require.NotNil(t, rec.DisconnectedAt)
		assert.False(t, rec.DisconnectedAt.Before(connected.ConnectedAt))
		assert.Equal(t, 0, s.ActiveCount())
		assert.Equal(t, "1m 30s", rec.FormattedDuration(clock.Now()))
	})

	t.Run("second disconnect re-stamps", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		s := connection.NewStore(connection.WithClock(clock.Now))

		_, err := s.TrackConnect("c1", "10.0.0.1", "ua")
		require.NoError(t, err)
		first, err := s.TrackDisconnect("c1")
		require.NoError(t, err)
		clock.Advance(time.Second)
		second, err := s.TrackDisconnect("c1")
		require.NoError(t, err)
		assert.True(t, second.DisconnectedAt.After(*first.DisconnectedAt))
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		s := connection.NewStore()
		_, err := s.TrackDisconnect("missing")
		assert.ErrorIs(t, err, connection.ErrNotFound)
	})
}

func TestUpdateUsername(t *testing.T) {
	t.Parallel()

	s := connection.NewStore()
	_, err := s.UpdateUsername("missing", "bob")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	_, err = s.TrackConnect("c1", "10.0.0.1", "ua")
	require.NoError(t, err)

	rec, err := s.UpdateUsername("c1", " bob ")
	require.NoError(t, err)
	assert.Equal(t, "bob", rec.Username)

	rec, err = s.UpdateUsername("c1", "")
	require.NoError(t, err)
	assert.Equal(t, connection.DefaultUsername, rec.Username)
}

func TestQueries(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := connection.NewStore(connection.WithClock(clock.Now))
	for _, c := range []struct{ id, ip string }{
		{"a", "10.0.0.1"}, {"b", "10.0.0.1"}, {"c", "10.0.0.2"},
	} {
		_, err := s.TrackConnect(c.id, c.ip, "ua")
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	_, err := s.TrackDisconnect("b")
	require.NoError(t, err)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	ids := func(records []connection.Record) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.All()))
	assert.Equal(t, []string{"a", "c"}, ids(s.Active()))
	assert.Equal(t, []string{"a", "b"}, ids(s.ByIP("10.0.0.1")))
	assert.Empty(t, s.ByIP("192.168.0.1"))
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 2, s.ActiveCount())

	// Returned records are copies.
	all := s.All()
	*all[1].DisconnectedAt = time.Time{}
	rec, err := s.Get("b")
	require.NoError(t, err)
	assert.False(t, rec.DisconnectedAt.IsZero())
}

func TestEvictOlderThan(t *testing.T) {
	t.Parallel()

	t.Run("zero retention removes every disconnected record", func(t *testing.T) {
		t.Parallel()
		s := connection.NewStore()
		for i := range 6 {
			_, err := s.TrackConnect(fmt.Sprintf("c%d", i), "10.0.0.1", "ua")
			require.NoError(t, err)
		}
		for i := range 3 {
			_, err := s.TrackDisconnect(fmt.Sprintf("c%d", i))
			require.NoError(t, err)
		}

		assert.Equal(t, 3, s.EvictOlderThan(0))
		assert.Equal(t, 3, s.Count())
		assert.Equal(t, 3, s.ActiveCount())
		for _, rec := range s.All() {
			assert.True(t, rec.Connected)
		}
		assert.Len(t, s.ByIP("10.0.0.1"), 3)
	})

	t.Run("keeps recent disconnects and old active records", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		s := connection.NewStore(connection.WithClock(clock.Now))

		_, _ = s.TrackConnect("old-active", "10.0.0.1", "ua")
		_, _ = s.TrackConnect("old", "10.0.0.1", "ua")
		_, _ = s.TrackDisconnect("old")
		clock.Advance(49 * time.Hour)
		_, _ = s.TrackConnect("recent", "10.0.0.1", "ua")
		_, _ = s.TrackDisconnect("recent")
		clock.Advance(time.Hour)

		assert.Equal(t, 1, s.EvictOlderThan(48*time.Hour))
		_, err := s.Get("old")
		assert.ErrorIs(t, err, connection.ErrNotFound)
		_, err = s.Get("recent")
		assert.NoError(t, err)
		_, err = s.Get("old-active")
		assert.NoError(t, err)
	})
}

func TestSweep(t *testing.T) {
	t.Parallel()

	s := connection.NewStore()
	_, _ = s.TrackConnect("c1", "10.0.0.1", "ua")
	_, _ = s.TrackDisconnect("c1")

	_, err := s.Sweep(context.Background(), -time.Second)
	assert.ErrorIs(t, err, connection.ErrValidation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Sweep(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.Count())

	n, err := s.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, s.Count())
}

func TestNotifierReceivesEventsInMutationOrder(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []connection.Event
	)
	s := connection.NewStore(connection.WithNotifier(connection.NotifierFunc(func(ev connection.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})))

	_, err := s.TrackConnect("c1", "10.0.0.1", "ua")
	require.NoError(t, err)
	_, err = s.UpdateUsername("c1", "alice")
	require.NoError(t, err)
	_, err = s.TrackDisconnect("c1")
	require.NoError(t, err)
	_, err = s.TrackDisconnect("missing")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, connection.EventConnect, events[0].Kind)
	assert.True(t, events[0].Record.Connected)
	assert.Equal(t, connection.EventDisconnect, events[1].Kind)
	assert.Equal(t, "alice", events[1].Record.Username)
	assert.False(t, events[1].Record.Connected)
}

package tracker_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conntrack/modules/tracker"
	"github.com/dmitrymomot/conntrack/pkg/classifier"
	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/events"
	"github.com/dmitrymomot/conntrack/pkg/ratelimiter"
	"github.com/dmitrymomot/conntrack/pkg/signature"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
	"github.com/dmitrymomot/conntrack/pkg/training"
)

const iPhoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

type fixture struct {
	router  http.Handler
	bus     *events.Bus
	stream  *events.Stream
	catalog *signature.Catalog
}

func newFixture(t *testing.T, checks map[string]tracker.HealthCheck) fixture {
	t.Helper()

	catalog := signature.NewDefault()
	bus := events.NewBus()
	stream := events.NewStream(8)
	stream.Attach(bus)
	store := connection.NewStore(connection.WithNotifier(bus))
	svc := tracking.New(store, classifier.New(catalog))
	feedback := training.New(catalog, training.WithRecorder(training.NewMemoryRecorder(10)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = stream.Close()
	})

	return fixture{
		router: tracker.Router(tracker.RouterOptions{
			Tracking:     svc,
			Catalog:      catalog,
			Feedback:     feedback,
			Bus:          bus,
			Stream:       stream,
			HealthChecks: checks,
		}),
		bus:     bus,
		stream:  stream,
		catalog: catalog,
	}
}

func (f fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestTrackAndQuery(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	w, env := f.do(t, http.MethodPost, "/track", `{"connectionId":"c1","ip":"203.0.113.7","userAgent":"`+iPhoneUA+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var rec connection.Record
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "c1", rec.ID)
	assert.Equal(t, connection.DefaultUsername, rec.Username)
	assert.True(t, rec.Connected)
	require.NotNil(t, rec.Client)
	assert.Equal(t, "Safari", rec.Client.Browser.Name)
	assert.Equal(t, "iOS", rec.Client.OS.Name)

	_, env = f.do(t, http.MethodPost, "/track", `{"ip":"203.0.113.7","userAgent":"curl/8.0"}`)
	var generated connection.Record
	require.NoError(t, json.Unmarshal(env.Data, &generated))
	assert.NotEmpty(t, generated.ID)
	assert.NotEqual(t, "c1", generated.ID)

	w, env = f.do(t, http.MethodGet, "/connections/c1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "203.0.113.7", rec.IP)

	_, env = f.do(t, http.MethodGet, "/connections/ip/203.0.113.7", "")
	var byIP []connection.Record
	require.NoError(t, json.Unmarshal(env.Data, &byIP))
	assert.Len(t, byIP, 2)
	assert.Equal(t, float64(2), env.Meta["total"])

	w, env = f.do(t, http.MethodPut, "/connections/c1/username", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "alice", rec.Username)

	w, env = f.do(t, http.MethodPost, "/connections/c1/disconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.False(t, rec.Connected)
	assert.NotNil(t, rec.DisconnectedAt)

	_, env = f.do(t, http.MethodGet, "/connections/count", "")
	var counts tracking.Counts
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, tracking.Counts{Total: 2, Active: 1}, counts)

	_, env = f.do(t, http.MethodGet, "/connections/active", "")
	var active []connection.Record
	require.NoError(t, json.Unmarshal(env.Data, &active))
	require.Len(t, active, 1)
	assert.Equal(t, generated.ID, active[0].ID)

	_, env = f.do(t, http.MethodGet, "/connections", "")
	var all []connection.Record
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 2)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing connection", http.MethodGet, "/connections/nope", "", http.StatusNotFound, "not_found"},
		{"rename missing connection", http.MethodPut, "/connections/nope/username", `{"username":"x"}`, http.StatusNotFound, "not_found"},
		{"disconnect missing connection", http.MethodPost, "/connections/nope/disconnect", "", http.StatusNotFound, "not_found"},
		{"missing ip", http.MethodPost, "/track", `{"userAgent":"x"}`, http.StatusBadRequest, "validation_error"},
		{"invalid ip", http.MethodPost, "/track", `{"ip":"999.1.1.1","userAgent":"x"}`, http.StatusBadRequest, "validation_error"},
		{"malformed json", http.MethodPost, "/track", `{"ip":`, http.StatusBadRequest, "invalid_json"},
		{"train without user agent", http.MethodPost, "/registry/train", `{"device":"Apple"}`, http.StatusBadRequest, "validation_error"},
		{"train with unknown category", http.MethodPost, "/registry/train", `{"userAgent":"x","patterns":{"car":"vroom"}}`, http.StatusBadRequest, "validation_error"},
		{"train with bad pattern", http.MethodPost, "/registry/train", `{"userAgent":"x","os":"iOS","patterns":{"os":"re:("}}`, http.StatusBadRequest, "validation_error"},
		{"bad recent limit", http.MethodGet, "/registry/train/recent?limit=zero", "", http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, env := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestUnavailableCatalog(t *testing.T) {
	t.Parallel()

	store := connection.NewStore()
	router := tracker.Router(tracker.RouterOptions{
		Tracking: tracking.New(store, classifier.New(nil)),
		Catalog:  &signature.Catalog{},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/registry/devices", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unavailable"`)
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	for _, path := range []string{"/registry/devices", "/registry/browsers", "/registry/os"} {
		w, env := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		var entries []map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &entries))
		assert.NotEmpty(t, entries, path)
		assert.Equal(t, float64(1), env.Meta["catalogVersion"])
	}

	w, env := f.do(t, http.MethodPost, "/registry/classify", `{"userAgent":"`+iPhoneUA+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var got classifier.Classification
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Apple", got.Device.Name)
	assert.Equal(t, uint64(1), got.CatalogVersion)
}

func TestTraining(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	w, env := f.do(t, http.MethodPost, "/registry/train",
		`{"userAgent":"`+iPhoneUA+`","device":"Apple","browser":"Safari","os":"Nope","patterns":{"browser":"mobile safari"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ack training.Ack
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	require.Len(t, ack.Outcomes, 3)
	assert.Equal(t, training.StatusReinforced, ack.Outcomes[0].Status)
	assert.Equal(t, training.StatusReinforced, ack.Outcomes[1].Status)
	assert.True(t, ack.Outcomes[1].PatternAdded)
	assert.Equal(t, training.StatusIgnored, ack.Outcomes[2].Status)
	assert.Greater(t, ack.CatalogVersion, uint64(1))
	assert.Equal(t, ack.CatalogVersion, f.catalog.Version())

	_, env = f.do(t, http.MethodGet, "/registry/train/recent?limit=5", "")
	var recent []training.Example
	require.NoError(t, json.Unmarshal(env.Data, &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, "Apple", recent[0].Device)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, map[string]tracker.HealthCheck{
			"redis": func(context.Context) error { return nil },
		})
		w, env := f.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok"}}`, string(env.Data))
	})

	t.Run("degraded", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, map[string]tracker.HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		w, env := f.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"connection refused"}}`, string(env.Data))
	})
}

func TestStatusPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	f.do(t, http.MethodPost, "/track", `{"connectionId":"<b>x</b>","ip":"198.51.100.1","userAgent":"`+iPhoneUA+`"}`)

	w, _ := f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `<table id="connections">`)
	assert.Contains(t, body, "&lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, body, "<b>x</b>")
	assert.Contains(t, body, "Safari (iOS 17, Apple)")
}

func TestPanicRecovery(t *testing.T) {
	t.Parallel()

	router := tracker.Router(tracker.RouterOptions{Tracking: nil})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/connections", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestEventStream(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/connections/events", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	waitFor := func(needle string) {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", needle)
				if strings.Contains(line, needle) {
					return
				}
			case <-ctx.Done():
				require.FailNow(t, "timed out waiting for "+needle)
			}
		}
	}

	waitFor("No active connections")
	require.Eventually(t, func() bool { return f.stream.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.do(t, http.MethodPost, "/track", `{"connectionId":"live-1","ip":"198.51.100.9","userAgent":"`+iPhoneUA+`"}`)
	waitFor(`"active":1`)
	waitFor("conn-live-1")
}

func TestWriteRateLimit(t *testing.T) {
	t.Parallel()

	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
		Capacity:       2,
		RefillRate:     1,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	router := tracker.Router(tracker.RouterOptions{
		Tracking:    tracking.New(connection.NewStore(), classifier.New(signature.NewDefault())),
		RateLimiter: bucket,
	})

	track := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(`{"ip":"198.51.100.1","userAgent":"x"}`))
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusCreated, track("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusCreated, track("192.0.2.1:1001").Code)

	denied := track("192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Contains(t, denied.Body.String(), `"rate_limited"`)
	assert.NotEmpty(t, denied.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, track("192.0.2.2:1000").Code, "other clients keep their budget")

	reads := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/connections", nil)
	r.RemoteAddr = "192.0.2.1:1003"
	router.ServeHTTP(reads, r)
	assert.Equal(t, http.StatusOK, reads.Code, "reads are not limited")
}

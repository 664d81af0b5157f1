package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/aretw0/vanity/internal/logging"
	vhttp "github.com/aretw0/vanity/pkg/adapters/http"
	"github.com/aretw0/vanity/pkg/adapters/memory"
	"github.com/aretw0/vanity/pkg/connection"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/loader"
	"github.com/aretw0/vanity/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...vhttp.Option) (*httptest.Server, *registry.Registry, *memory.Adapter) {
	t.Helper()
	fsys := fstest.MapFS{
		"price_options.yml":   {Data: []byte("name: Price options\nalternatives: [\"19\", \"25\"]\nmetrics: [signups]\n")},
		"metrics/signups.yml": {Data: []byte("name: Signups\ndescription: New accounts\n")},
	}
	store := memory.NewAdapter()
	mgr := connection.NewManager(connection.WithDefaultSpec(store))
	reg := registry.New(loader.New(loader.NewFSSource(fsys)), mgr)

	srv := httptest.NewServer(vhttp.NewHandler(reg, opts...))
	t.Cleanup(srv.Close)
	return srv, reg, store
}

func TestListExperiments(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/experiments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []vhttp.ExperimentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, domain.Identifier("price_options"), got[0].ID)
	assert.Equal(t, []string{"19", "25"}, got[0].Alternatives)
	assert.Equal(t, []domain.Identifier{"signups"}, got[0].Metrics)
	assert.NotNil(t, got[0].CreatedAt)
}

func TestGetExperiment_CreatedAt(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	e, err := reg.Experiment(context.Background(), "price_options")
	require.NoError(t, err)
	first, err := e.CreatedAt(context.Background())
	require.NoError(t, err)
	require.NoError(t, e.Save(context.Background()))

	resp, err := http.Get(srv.URL + "/api/experiments/Price%20Options")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got vhttp.ExperimentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotNil(t, got.CreatedAt)
	assert.False(t, first.IsZero())
	assert.WithinDuration(t, first, *got.CreatedAt, time.Second)
}

func TestNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/api/metrics/conversions", "/api/experiments/nope"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	resp, err := http.Post(srv.URL+"/api/metrics/conversions/track", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrackMetric(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/metrics/signups/track", strings.NewReader(`{"amount": 4}`))
	require.NoError(t, err)
	req.Header.Set(vhttp.IdentityHeader, "user-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/metrics/signups/track", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/metrics/signups")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got vhttp.MetricView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "New accounts", got.Description)
	require.Len(t, got.Values, 7)
	assert.Equal(t, 5, got.Values[6].Value)
	assert.NotNil(t, got.LastUpdateAt)
}

func TestTrackMetric_BadBody(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/metrics/signups/track", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMetric_Range(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/metrics/signups?from=2026-01-01&to=2026-01-03")
	require.NoError(t, err)
	defer resp.Body.Close()
	var got vhttp.MetricView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Values, 3)
	assert.Equal(t, "2026-01-01", got.Values[0].Date)

	bad, err := http.Get(srv.URL + "/api/metrics/signups?from=2026-01-03&to=2026-01-01")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	year, err := http.Get(srv.URL + "/api/metrics/signups?from=2024-01-01&to=2024-12-31")
	require.NoError(t, err)
	defer year.Body.Close()
	var leap vhttp.MetricView
	require.NoError(t, json.NewDecoder(year.Body).Decode(&leap))
	assert.Len(t, leap.Values, vhttp.MaxRangeDays)

	for _, q := range []string{
		"from=2024-01-01&to=2025-01-01",
		"from=0001-01-01&to=9999-12-31",
	} {
		long, err := http.Get(srv.URL + "/api/metrics/signups?" + q)
		require.NoError(t, err)
		long.Body.Close()
		assert.Equal(t, http.StatusBadRequest, long.StatusCode, q)
	}
}

func TestIdentityMiddleware_AssignsCookie(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == vhttp.IdentityCookie {
			found = true
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set(vhttp.IdentityHeader, "known")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Cookies())
}

func TestReload(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	require.NoError(t, reg.Load(context.Background()))

	resp, err := http.Post(srv.URL+"/api/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, reg.Populated(domain.FamilyExperiments))
}

func TestMetricsEndpoint(t *testing.T) {
	promReg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "vanity_test_total", Help: "test"})
	promReg.MustRegister(counter)
	counter.Inc()

	srv, _, _ := newTestServer(t, vhttp.WithMetricsHandler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body := new(strings.Builder)
	_, err = bufio.NewReader(resp.Body).WriteTo(body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "vanity_test_total 1")
}

func TestSubscribeEvents_Tracks(t *testing.T) {
	streams := vhttp.NewStreamManager(nil)
	srv, _, _ := newTestServer(t, vhttp.WithStreams(streams))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?topic=tracks", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	// Subscription is registered before the ping is written.
	assert.Equal(t, 1, streams.Subscribers(vhttp.TopicTracks))
	assert.Equal(t, 1, streams.Broadcast(vhttp.TopicTracks, "signups"))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: signups") {
			break
		}
	}
}

func TestStreamManager_DropsForLaggingSubscriber(t *testing.T) {
	var logs bytes.Buffer
	streams := vhttp.NewStreamManager(logging.NewWithWriter(&logs, slog.LevelWarn))

	ch, cancel := streams.Subscribe(vhttp.TopicReloads)
	for i := 0; i < 10; i++ {
		require.Equal(t, 1, streams.Broadcast(vhttp.TopicReloads, "reload"))
	}
	assert.Equal(t, 0, streams.Broadcast(vhttp.TopicReloads, "reload"))
	assert.Contains(t, logs.String(), "dropping event")

	assert.Equal(t, 0, streams.Broadcast(vhttp.TopicTracks, "signups"))

	cancel()
	cancel()
	assert.Equal(t, 0, streams.Subscribers(vhttp.TopicReloads))
	buffered := 0
	for range ch {
		buffered++
	}
	assert.Equal(t, 10, buffered)
}

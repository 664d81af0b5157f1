package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHooks(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()

	hooks.OnLoad(ctx, &domain.LoadEvent{Family: domain.FamilyMetrics, Count: 3, Duration: time.Millisecond})
	hooks.OnLoad(ctx, &domain.LoadEvent{Family: domain.FamilyExperiments, Err: errors.New("boom")})
	hooks.OnTrack(ctx, &domain.TrackEvent{Metric: "signups", Amount: 2})
	hooks.OnTrack(ctx, &domain.TrackEvent{Metric: "signups", Amount: 1})
	hooks.OnConnect(ctx, &domain.ConnectionEvent{Adapter: "redis"})
	hooks.OnConnect(ctx, &domain.ConnectionEvent{Adapter: "redis", Err: errors.New("refused")})
	hooks.OnDisconnect(ctx, &domain.ConnectionEvent{Adapter: "redis"})

	assert.Equal(t, 3.0, gathered(t, reg, "vanity_definitions", "metrics"))
	assert.Equal(t, 3.0, gathered(t, reg, "vanity_metric_tracked_total", "signups"))
	assert.Equal(t, 1.0, gathered(t, reg, "vanity_load_passes_total", "error"))

	count, err := testutil.GatherAndCount(reg, "vanity_connection_events_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(reg, "vanity_load_passes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// gathered returns the value of the series of name carrying label value lv.
func gathered(t *testing.T, reg *prometheus.Registry, name, lv string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() != lv {
					continue
				}
				if g := m.GetGauge(); g != nil {
					return g.GetValue()
				}
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("no series %s{%s}", name, lv)
	return 0
}

func TestNewMetrics_RegisterTwice(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	second, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	first.Hooks().OnTrack(ctx, &domain.TrackEvent{Metric: "visits", Amount: 1})
	second.Hooks().OnTrack(ctx, &domain.TrackEvent{Metric: "visits", Amount: 1})
	assert.Equal(t, 2.0, gathered(t, reg, "vanity_metric_tracked_total", "visits"))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)
	hooks := observability.LoggingHooks(logger).Merge(domain.LifecycleHooks{})

	ctx := context.Background()
	hooks.OnLoad(ctx, &domain.LoadEvent{Family: domain.FamilyMetrics, Path: "experiments/metrics", Count: 2})
	hooks.OnTrack(ctx, &domain.TrackEvent{Metric: "signups", Identity: "u1", Amount: 1})
	hooks.OnConnect(ctx, &domain.ConnectionEvent{Adapter: "mock", Err: errors.New("nope")})

	out := buf.String()
	assert.Contains(t, out, "load_pass")
	assert.Contains(t, out, "count=2")
	assert.Contains(t, out, "identity=u1")
	assert.Contains(t, out, "connect_failed")
	assert.Contains(t, out, "err=nope")
}

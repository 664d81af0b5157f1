package observability

import (
	"context"
	"errors"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	definitions  *prometheus.GaugeVec
	tracks       *prometheus.CounterVec
	connections  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanity_load_passes_total",
				Help: "Total number of definition load passes",
			},
			[]string{"family", "outcome"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "vanity_load_duration_seconds",
				Help: "Duration of definition load passes",
			},
			[]string{"family"},
		),
		definitions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vanity_definitions",
				Help: "Definitions loaded by the last successful pass",
			},
			[]string{"family"},
		),
		tracks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanity_metric_tracked_total",
				Help: "Total amount tracked per metric",
			},
			[]string{"metric"},
		),
		connections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vanity_connection_events_total",
				Help: "Adapter connect, disconnect and failure events",
			},
			[]string{"adapter", "event"},
		),
	}

	var err error
	if m.loads, err = register(reg, m.loads); err != nil {
		return nil, err
	}
	if m.loadDuration, err = register(reg, m.loadDuration); err != nil {
		return nil, err
	}
	if m.definitions, err = register(reg, m.definitions); err != nil {
		return nil, err
	}
	if m.tracks, err = register(reg, m.tracks); err != nil {
		return nil, err
	}
	if m.connections, err = register(reg, m.connections); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoad: func(_ context.Context, e *domain.LoadEvent) {
			family := string(e.Family)
			if e.Err != nil {
				m.loads.WithLabelValues(family, "error").Inc()
				return
			}
			m.loads.WithLabelValues(family, "ok").Inc()
			m.loadDuration.WithLabelValues(family).Observe(e.Duration.Seconds())
			m.definitions.WithLabelValues(family).Set(float64(e.Count))
		},
		OnTrack: func(_ context.Context, e *domain.TrackEvent) {
			m.tracks.WithLabelValues(string(e.Metric)).Add(float64(e.Amount))
		},
		OnConnect: func(_ context.Context, e *domain.ConnectionEvent) {
			event := "connect"
			if e.Err != nil {
				event = "error"
			}
			m.connections.WithLabelValues(e.Adapter, event).Inc()
		},
		OnDisconnect: func(_ context.Context, e *domain.ConnectionEvent) {
			m.connections.WithLabelValues(e.Adapter, "disconnect").Inc()
		},
	}
}

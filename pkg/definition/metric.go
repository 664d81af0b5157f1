package definition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/identity"
	"github.com/aretw0/vanity/pkg/ports"
)

// TrackHook is called after every successful Track on a metric.
type TrackHook func(ctx context.Context, event *domain.TrackEvent)

// Metric is a loaded metric definition.
type Metric struct {
	id          domain.Identifier
	name        string
	description string
	conn        ports.Connector
	opts        options

	mu    sync.RWMutex
	hooks []TrackHook
}

// NewMetric builds the handle for a metric definition.
func NewMetric(id domain.Identifier, def *domain.Definition, conn ports.Connector, opts ...Option) *Metric {
	name := def.Name
	if name == "" {
		name = string(id)
	}
	return &Metric{
		id:          id,
		name:        name,
		description: def.Description,
		conn:        conn,
		opts:        newOptions(opts),
	}
}

func (m *Metric) ID() domain.Identifier { return m.id }
func (m *Metric) Name() string          { return m.name }
func (m *Metric) Family() domain.Family { return domain.FamilyMetrics }
func (m *Metric) Description() string   { return m.description }

// Hook registers fn to run after each Track.
func (m *Metric) Hook(fn TrackHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Track records amount occurrences for the identity in ctx.
// Amounts below one count as one.
func (m *Metric) Track(ctx context.Context, amount int) error {
	if amount <= 0 {
		amount = 1
	}
	adapter, err := m.conn.Connection(ctx)
	if err != nil {
		return fmt.Errorf("track %s: %w", m.id, err)
	}

	event := &domain.TrackEvent{
		Timestamp: m.opts.now().UTC(),
		Metric:    m.id,
		Identity:  identity.IDFromContext(ctx),
		Amount:    amount,
	}
	if err := adapter.MetricTrack(ctx, string(m.id), event.Timestamp, event.Identity, amount); err != nil {
		return fmt.Errorf("track %s: %w", m.id, err)
	}

	m.mu.RLock()
	hooks := m.hooks
	m.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, event)
	}
	if m.opts.hooks.OnTrack != nil {
		m.opts.hooks.OnTrack(ctx, event)
	}
	return nil
}

// Values returns the daily totals from from to to, inclusive.
func (m *Metric) Values(ctx context.Context, from, to time.Time) ([]int, error) {
	adapter, err := m.conn.Connection(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.MetricValues(ctx, string(m.id), from, to)
}

// LastUpdateAt returns when the metric was last tracked, or the zero time.
func (m *Metric) LastUpdateAt(ctx context.Context) (time.Time, error) {
	adapter, err := m.conn.Connection(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return adapter.MetricLastUpdateAt(ctx, string(m.id))
}

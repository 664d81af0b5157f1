// Package memory provides the in-memory "mock" adapter, used in tests and in
// environments without access to the real store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/vanity/pkg/connection"
	"github.com/aretw0/vanity/pkg/ports"
)

func init() {
	connection.RegisterAdapter(connection.TestAdapter, func(ctx context.Context, cfg connection.Config) (ports.Adapter, error) {
		return NewAdapter(), nil
	})
}

// Adapter implements ports.Adapter in memory.
// Safe for concurrent use.
type Adapter struct {
	mu          sync.RWMutex
	metrics     map[string]map[string]int // metric -> day -> total
	lastUpdate  map[string]time.Time
	experiments map[string]time.Time
	closed      bool
}

var _ ports.Adapter = (*Adapter)(nil)

// NewAdapter creates an empty, active in-memory adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		metrics:     make(map[string]map[string]int),
		lastUpdate:  make(map[string]time.Time),
		experiments: make(map[string]time.Time),
	}
}

// Active reports whether Disconnect has not been called.
func (a *Adapter) Active() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.closed
}

// Disconnect marks the adapter inactive. Stored data is kept.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// MetricTrack adds amount to the metric's bucket for the day of at.
func (a *Adapter) MetricTrack(ctx context.Context, metricID string, at time.Time, identity string, amount int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	days, ok := a.metrics[metricID]
	if !ok {
		days = make(map[string]int)
		a.metrics[metricID] = days
	}
	days[ports.DayKey(at)] += amount
	a.lastUpdate[metricID] = time.Now()
	return nil
}

// MetricValues returns one total per day in the range.
func (a *Adapter) MetricValues(ctx context.Context, metricID string, from, to time.Time) ([]int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	days := ports.Days(from, to)
	values := make([]int, len(days))
	for i, day := range days {
		values[i] = a.metrics[metricID][ports.DayKey(day)]
	}
	return values, nil
}

// MetricLastUpdateAt returns when the metric was last tracked.
func (a *Adapter) MetricLastUpdateAt(ctx context.Context, metricID string) (time.Time, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastUpdate[metricID], nil
}

// SetExperimentCreatedAt records the creation time once.
func (a *Adapter) SetExperimentCreatedAt(ctx context.Context, experimentID string, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.experiments[experimentID]; !ok {
		a.experiments[experimentID] = at
	}
	return nil
}

// ExperimentCreatedAt returns the recorded creation time.
func (a *Adapter) ExperimentCreatedAt(ctx context.Context, experimentID string) (time.Time, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.experiments[experimentID], nil
}

// Flush drops everything stored.
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics = make(map[string]map[string]int)
	a.lastUpdate = make(map[string]time.Time)
	a.experiments = make(map[string]time.Time)
	return nil
}

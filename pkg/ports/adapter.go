package ports

import (
	"context"
	"time"
)

// Adapter is the storage backend capability as seen by the registry.
// At most one Adapter is live per connection manager.
type Adapter interface {
	// Active reports whether the adapter can serve requests.
	Active() bool

	// Disconnect releases the underlying connection. Calling it twice is a no-op.
	Disconnect() error

	// MetricTrack adds amount to the metric's bucket for the day of at.
	// identity is the caller scope of the observation and may be empty.
	MetricTrack(ctx context.Context, metricID string, at time.Time, identity string, amount int) error

	// MetricValues returns one total per day from `from` to `to`, both inclusive (UTC days).
	MetricValues(ctx context.Context, metricID string, from, to time.Time) ([]int, error)

	// MetricLastUpdateAt returns the time of the last MetricTrack, or the zero time.
	MetricLastUpdateAt(ctx context.Context, metricID string) (time.Time, error)

	// SetExperimentCreatedAt records the creation time unless one is already recorded.
	SetExperimentCreatedAt(ctx context.Context, experimentID string, at time.Time) error

	// ExperimentCreatedAt returns the recorded creation time, or the zero time.
	ExperimentCreatedAt(ctx context.Context, experimentID string) (time.Time, error)

	// Flush removes everything the adapter stored under its namespace.
	Flush(ctx context.Context) error
}

// Connector hands out the active Adapter, establishing one if needed.
type Connector interface {
	Connection(ctx context.Context) (Adapter, error)
}

// Days enumerates the UTC calendar days from `from` to `to`, both inclusive.
// Adapters use it to bucket MetricValues consistently.
func Days(from, to time.Time) []time.Time {
	start := truncateDay(from)
	end := truncateDay(to)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayKey formats the UTC day of t as used in storage keys.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

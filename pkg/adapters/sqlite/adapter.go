// Package sqlite provides an adapter storing Vanity data in a SQLite database.
//
// Connection specs look like "sqlite:///var/lib/vanity.db" or "sqlite:vanity.db".
// An empty path opens a private in-memory database.
// A host ("sqlite://vanity.db") is rejected.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/vanity/pkg/connection"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/ports"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Name is the adapter name used in connection specs.
const Name = "sqlite"

func init() {
	connection.RegisterAdapter(Name, func(ctx context.Context, cfg connection.Config) (ports.Adapter, error) {
		if cfg.Spec.Host != "" {
			// "sqlite://vanity.db" puts the file name in the host.
			return nil, &domain.ConfigurationError{
				Source: cfg.Spec.String(),
				Msg:    fmt.Sprintf("sqlite takes a path, not host %q; use sqlite:%s or sqlite:///abs/path", cfg.Spec.Host, cfg.Spec.Host),
			}
		}
		return Open(ctx, cfg.Spec.Path, cfg.Namespace)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS vanity_metric_values (
	namespace TEXT NOT NULL,
	metric_id TEXT NOT NULL,
	day       TEXT NOT NULL,
	value     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (namespace, metric_id, day)
);
CREATE TABLE IF NOT EXISTS vanity_metrics (
	namespace      TEXT NOT NULL,
	metric_id      TEXT NOT NULL,
	last_update_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, metric_id)
);
CREATE TABLE IF NOT EXISTS vanity_experiments (
	namespace     TEXT NOT NULL,
	experiment_id TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	PRIMARY KEY (namespace, experiment_id)
);
`

// Adapter implements ports.Adapter on a SQLite database.
type Adapter struct {
	db        *sql.DB
	namespace string

	mu     sync.RWMutex
	closed bool
}

var _ ports.Adapter = (*Adapter)(nil)

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path, namespace string) (*Adapter, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Adapter{db: db, namespace: namespace}, nil
}

// Active reports whether the database is open and reachable.
func (a *Adapter) Active() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}
	return a.db.Ping() == nil
}

// Disconnect closes the database.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}

// MetricTrack upserts the day bucket and the last update stamp in one transaction.
func (a *Adapter) MetricTrack(ctx context.Context, metricID string, at time.Time, identity string, amount int) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vanity_metric_values (namespace, metric_id, day, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, metric_id, day) DO UPDATE SET value = value + excluded.value`,
		a.namespace, metricID, ports.DayKey(at), amount)
	if err != nil {
		return fmt.Errorf("failed to track metric %s: %w", metricID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vanity_metrics (namespace, metric_id, last_update_at) VALUES (?, ?, ?)
		ON CONFLICT (namespace, metric_id) DO UPDATE SET last_update_at = excluded.last_update_at`,
		a.namespace, metricID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to stamp metric %s: %w", metricID, err)
	}
	return tx.Commit()
}

// MetricValues returns one total per day in the range.
func (a *Adapter) MetricValues(ctx context.Context, metricID string, from, to time.Time) ([]int, error) {
	days := ports.Days(from, to)
	if len(days) == 0 {
		return []int{}, nil
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT day, value FROM vanity_metric_values
		WHERE namespace = ? AND metric_id = ? AND day BETWEEN ? AND ?`,
		a.namespace, metricID, ports.DayKey(days[0]), ports.DayKey(days[len(days)-1]))
	if err != nil {
		return nil, fmt.Errorf("failed to read metric %s: %w", metricID, err)
	}
	defer rows.Close()

	byDay := make(map[string]int)
	for rows.Next() {
		var day string
		var value int
		if err := rows.Scan(&day, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric %s: %w", metricID, err)
		}
		byDay[day] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	values := make([]int, len(days))
	for i, day := range days {
		values[i] = byDay[ports.DayKey(day)]
	}
	return values, nil
}

// MetricLastUpdateAt returns when the metric was last tracked.
func (a *Adapter) MetricLastUpdateAt(ctx context.Context, metricID string) (time.Time, error) {
	return a.queryTime(ctx,
		`SELECT last_update_at FROM vanity_metrics WHERE namespace = ? AND metric_id = ?`, metricID)
}

// SetExperimentCreatedAt records the creation time once.
func (a *Adapter) SetExperimentCreatedAt(ctx context.Context, experimentID string, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO vanity_experiments (namespace, experiment_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (namespace, experiment_id) DO NOTHING`,
		a.namespace, experimentID, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to save experiment %s: %w", experimentID, err)
	}
	return nil
}

// ExperimentCreatedAt returns the recorded creation time.
func (a *Adapter) ExperimentCreatedAt(ctx context.Context, experimentID string) (time.Time, error) {
	return a.queryTime(ctx,
		`SELECT created_at FROM vanity_experiments WHERE namespace = ? AND experiment_id = ?`, experimentID)
}

func (a *Adapter) queryTime(ctx context.Context, query, id string) (time.Time, error) {
	var unix int64
	err := a.db.QueryRowContext(ctx, query, a.namespace, id).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query %s: %w", id, err)
	}
	return time.Unix(unix, 0), nil
}

// Flush deletes every row of the namespace.
func (a *Adapter) Flush(ctx context.Context) error {
	for _, table := range []string{"vanity_metric_values", "vanity_metrics", "vanity_experiments"} {
		//nolint:gosec // G202: table names are constants
		if _, err := a.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE namespace = ?", a.namespace); err != nil {
			return fmt.Errorf("failed to flush %s: %w", table, err)
		}
	}
	return nil
}

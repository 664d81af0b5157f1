// Package redis provides the Redis adapter, the default Vanity backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/vanity/pkg/connection"
	"github.com/aretw0/vanity/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Name is the adapter name used in connection specs.
const Name = "redis"

const pingTimeout = time.Second

func init() {
	connection.RegisterAdapter(Name, func(ctx context.Context, cfg connection.Config) (ports.Adapter, error) {
		opts, err := ClientOptions(cfg.Spec)
		if err != nil {
			return nil, err
		}
		prefix := cfg.Spec.Param("namespace")
		if prefix == "" {
			prefix = cfg.Namespace
		}
		adapter := NewFromClient(backend.NewClient(opts), WithPrefix(prefix+":"))
		if err := adapter.client.Ping(ctx).Err(); err != nil {
			_ = adapter.client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Addr, err)
		}
		return adapter, nil
	})
}

// ClientOptions maps a connection spec onto go-redis options.
// The path selects the database ("/2" is DB 2).
func ClientOptions(spec connection.Spec) (*backend.Options, error) {
	opts := &backend.Options{
		Addr:     spec.Addr("localhost", 6379),
		Username: spec.Username,
		Password: spec.Password,
	}
	if db := strings.Trim(spec.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid redis database %q: %w", spec.Path, err)
		}
		opts.DB = n
	}
	return opts, nil
}

// Adapter implements ports.Adapter using Redis.
type Adapter struct {
	client *backend.Client
	prefix string

	mu     sync.RWMutex
	closed bool
}

var _ ports.Adapter = (*Adapter)(nil)

// Option configures the Adapter.
type Option func(*Adapter)

// WithPrefix sets the key prefix (namespace) for every key.
func WithPrefix(prefix string) Option {
	return func(a *Adapter) {
		a.prefix = prefix
	}
}

// New creates a new Redis adapter with options.
func New(address, password string, db int, opts ...Option) *Adapter {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis adapter from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Adapter {
	a := &Adapter{
		client: client,
		prefix: "vanity:1:",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) metricKey(metricID, suffix string) string {
	return a.prefix + "metrics:" + metricID + ":" + suffix
}

func (a *Adapter) valueKey(metricID string, day time.Time) string {
	return a.metricKey(metricID, ports.DayKey(day)+":value:0")
}

func (a *Adapter) experimentKey(experimentID, suffix string) string {
	return a.prefix + "experiments:" + experimentID + ":" + suffix
}

// Active reports whether the client is open and the server answers.
func (a *Adapter) Active() bool {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return a.client.Ping(ctx).Err() == nil
}

// Disconnect closes the redis client.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.client.Close()
}

// MetricTrack increments the day bucket and stamps the last update.
func (a *Adapter) MetricTrack(ctx context.Context, metricID string, at time.Time, identity string, amount int) error {
	pipe := a.client.TxPipeline()
	pipe.IncrBy(ctx, a.valueKey(metricID, at), int64(amount))
	pipe.Set(ctx, a.metricKey(metricID, "last_update_at"), time.Now().Unix(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to track metric %s: %w", metricID, err)
	}
	return nil
}

// MetricValues reads one bucket per day with a single MGET.
func (a *Adapter) MetricValues(ctx context.Context, metricID string, from, to time.Time) ([]int, error) {
	days := ports.Days(from, to)
	if len(days) == 0 {
		return []int{}, nil
	}
	keys := make([]string, len(days))
	for i, day := range days {
		keys[i] = a.valueKey(metricID, day)
	}

	raw, err := a.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read metric %s: %w", metricID, err)
	}

	values := make([]int, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt value for metric %s: %w", metricID, err)
		}
		values[i] = n
	}
	return values, nil
}

// MetricLastUpdateAt returns when the metric was last tracked.
func (a *Adapter) MetricLastUpdateAt(ctx context.Context, metricID string) (time.Time, error) {
	return a.getTime(ctx, a.metricKey(metricID, "last_update_at"))
}

// SetExperimentCreatedAt records the creation time once (SETNX).
func (a *Adapter) SetExperimentCreatedAt(ctx context.Context, experimentID string, at time.Time) error {
	if err := a.client.SetNX(ctx, a.experimentKey(experimentID, "created_at"), at.Unix(), 0).Err(); err != nil {
		return fmt.Errorf("failed to save experiment %s: %w", experimentID, err)
	}
	return nil
}

// ExperimentCreatedAt returns the recorded creation time.
func (a *Adapter) ExperimentCreatedAt(ctx context.Context, experimentID string) (time.Time, error) {
	return a.getTime(ctx, a.experimentKey(experimentID, "created_at"))
}

func (a *Adapter) getTime(ctx context.Context, key string) (time.Time, error) {
	unix, err := a.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return time.Unix(unix, 0), nil
}

// Flush deletes every key under the prefix.
func (a *Adapter) Flush(ctx context.Context) error {
	iter := a.client.Scan(ctx, 0, a.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return a.client.Del(ctx, keys...).Err()
}

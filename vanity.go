package vanity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/config"
	"github.com/aretw0/vanity/pkg/connection"
	"github.com/aretw0/vanity/pkg/definition"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/loader"
	"github.com/aretw0/vanity/pkg/ports"
	"github.com/aretw0/vanity/pkg/registry"

	// Adapters register themselves with the connection package.
	_ "github.com/aretw0/vanity/pkg/adapters/memory"
	_ "github.com/aretw0/vanity/pkg/adapters/redis"
	_ "github.com/aretw0/vanity/pkg/adapters/sqlite"
)

// Playground ties the definition registry to the store connection.
type Playground struct {
	Settings   config.Settings
	Registry   *registry.Registry
	Connection *connection.Manager

	source  loader.Source
	spec    any
	hasSpec bool
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures a Playground.
type Option func(*Playground)

// WithSettings replaces the settings read from the environment.
func WithSettings(s config.Settings) Option {
	return func(p *Playground) {
		p.Settings = s
	}
}

// WithLoadPath sets the directory holding the definition files.
func WithLoadPath(dir string) Option {
	return func(p *Playground) {
		p.Settings.LoadPath = dir
	}
}

// WithConfigDir sets the directory holding vanity.yml and redis.yml.
func WithConfigDir(dir string) Option {
	return func(p *Playground) {
		p.Settings.ConfigDir = dir
	}
}

// WithEnvironment sets the deployment environment name.
func WithEnvironment(env string) Option {
	return func(p *Playground) {
		p.Settings.VanityEnv = env
	}
}

// WithNamespace sets the namespace of the keys written by adapters.
func WithNamespace(ns string) Option {
	return func(p *Playground) {
		p.Settings.Namespace = ns
	}
}

// WithConnection sets the spec used when the first connection is needed,
// ahead of the configuration files. See connection.Resolver for accepted forms.
func WithConnection(raw any) Option {
	return func(p *Playground) {
		p.spec, p.hasSpec = raw, true
	}
}

// WithSource reads definitions from src instead of the load path on disk.
func WithSource(src loader.Source) Option {
	return func(p *Playground) {
		p.source = src
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Playground) {
		p.hooks = hooks
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Playground) {
		p.logger = logger
	}
}

// New builds a Playground from the environment and opts.
// Nothing is loaded or connected until first use.
func New(opts ...Option) (*Playground, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	p := &Playground{Settings: settings}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.New(logging.ParseLevel(p.Settings.LogLevel))
	}
	if p.source == nil {
		p.source = loader.NewDirSource(p.Settings.LoadPath)
	}

	resolver := connection.NewResolver(
		connection.WithConfigDir(p.Settings.ConfigDir),
		connection.WithEnvironment(p.Settings.Environment()),
	)
	managerOpts := []connection.Option{
		connection.WithResolver(resolver),
		connection.WithNamespace(p.Settings.Namespace),
		connection.WithLogger(p.logger),
		connection.WithLifecycleHooks(p.hooks),
	}
	if p.hasSpec {
		managerOpts = append(managerOpts, connection.WithDefaultSpec(p.spec))
	}
	p.Connection = connection.NewManager(managerOpts...)

	p.Registry = registry.New(
		loader.New(p.source, loader.WithLogger(p.logger)),
		p.Connection,
		registry.WithLoadPath(p.Settings.LoadPath),
		registry.WithLogger(p.logger),
		registry.WithLifecycleHooks(p.hooks),
	)
	return p, nil
}

// Experiment returns the experiment named name.
func (p *Playground) Experiment(ctx context.Context, name string) (*definition.Experiment, error) {
	return p.Registry.Experiment(ctx, name)
}

// Metric returns the metric named name.
func (p *Playground) Metric(ctx context.Context, name string) (*definition.Metric, error) {
	return p.Registry.Metric(ctx, name)
}

// Experiments returns every experiment, ordered by identifier.
func (p *Playground) Experiments(ctx context.Context) ([]*definition.Experiment, error) {
	return p.Registry.Experiments(ctx)
}

// Metrics returns every metric, ordered by identifier.
func (p *Playground) Metrics(ctx context.Context) ([]*definition.Metric, error) {
	return p.Registry.Metrics(ctx)
}

// Track records amount occurrences on the named metric for the identity in ctx.
func (p *Playground) Track(ctx context.Context, metric string, amount int) error {
	return p.Registry.Track(ctx, metric, amount)
}

// Load loads every definition now instead of on first use.
func (p *Playground) Load(ctx context.Context) error {
	return p.Registry.Load(ctx)
}

// Reload discards loaded definitions; they are read again on next use.
func (p *Playground) Reload() {
	p.Registry.Reload()
}

// Establish replaces the store connection. See connection.Manager.Establish.
func (p *Playground) Establish(ctx context.Context, raw any) (ports.Adapter, error) {
	return p.Connection.Establish(ctx, raw)
}

// Connected reports whether a store connection is installed and active.
func (p *Playground) Connected() bool {
	return p.Connection.Connected()
}

// UseTestAdapter switches to the in-memory store.
func (p *Playground) UseTestAdapter(ctx context.Context) error {
	_, err := p.Connection.UseTestAdapter(ctx)
	return err
}

// Close disconnects from the store.
func (p *Playground) Close() error {
	if err := p.Connection.Disconnect(); err != nil {
		return fmt.Errorf("close playground: %w", err)
	}
	return nil
}

var (
	defaultMu sync.Mutex
	defaultPG *Playground
)

// Default returns the process-wide Playground, creating it from the
// environment on first call.
func Default() (*Playground, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultPG == nil {
		p, err := New()
		if err != nil {
			return nil, err
		}
		defaultPG = p
	}
	return defaultPG, nil
}

// SetDefault replaces the process-wide Playground. Passing nil resets it.
func SetDefault(p *Playground) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPG = p
}

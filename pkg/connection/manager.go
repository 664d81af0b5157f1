package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TestAdapter is the in-memory adapter installed by UseTestAdapter.
const TestAdapter = "mock"

// Manager owns the single active adapter.
// Safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	adapter ports.Adapter
	spec    Spec
	hasSpec bool

	resolver    *Resolver
	defaultSpec any
	namespace   string
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	tracer      trace.Tracer
}

var _ ports.Connector = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithResolver sets the resolver used for every establish.
func WithResolver(r *Resolver) Option {
	return func(m *Manager) {
		m.resolver = r
	}
}

// WithDefaultSpec sets the raw spec used by Connection and Reconnect,
// taking precedence over the configuration files.
func WithDefaultSpec(raw any) Option {
	return func(m *Manager) {
		m.defaultSpec = raw
	}
}

// WithNamespace sets the key namespace handed to adapters.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		m.namespace = ns
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers connect/disconnect callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// NewManager creates a Manager with no active connection.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "vanity:1",
		logger:    logging.NewNop(),
		tracer:    otel.Tracer("github.com/aretw0/vanity/pkg/connection"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.resolver == nil {
		m.resolver = NewResolver()
	}
	return m
}

// Establish resolves raw and installs the resulting adapter, replacing the current one.
//
// raw may be anything Resolver.Resolve accepts, or a ready ports.Adapter which is
// installed unchanged. Resolution happens before the current adapter is touched: a
// spec that fails to resolve (including an unknown adapter) leaves the current
// adapter installed. Otherwise the current adapter is disconnected before the new
// one is built, and if building fails no adapter is installed.
func (m *Manager) Establish(ctx context.Context, raw any) (ports.Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.establishLocked(ctx, raw)
}

func (m *Manager) establishLocked(ctx context.Context, raw any) (ports.Adapter, error) {
	ctx, span := m.tracer.Start(ctx, "connection.establish")
	defer span.End()

	if adapter, ok := raw.(ports.Adapter); ok && adapter != nil {
		m.disconnectLocked(ctx)
		m.adapter, m.spec, m.hasSpec = adapter, Spec{}, false
		span.SetAttributes(attribute.String("vanity.adapter", "custom"))
		m.logger.Info("connection established", "adapter", "custom")
		m.notifyConnect(ctx, "custom", nil)
		return adapter, nil
	}

	spec, err := m.resolver.Resolve(raw)
	if err != nil {
		return nil, m.fail(ctx, span, spec.Adapter, err)
	}
	span.SetAttributes(attribute.String("vanity.adapter", spec.Adapter))

	factory, ok := lookupAdapter(spec.Adapter)
	if !ok {
		return nil, m.fail(ctx, span, spec.Adapter, &domain.UnknownAdapterError{Adapter: spec.Adapter})
	}

	m.disconnectLocked(ctx)

	adapter, err := factory(ctx, Config{Spec: spec, Namespace: m.namespace, Logger: m.logger})
	if err != nil {
		return nil, m.fail(ctx, span, spec.Adapter, fmt.Errorf("%s adapter: %w", spec.Adapter, err))
	}

	m.adapter, m.spec, m.hasSpec = adapter, spec, true
	m.logger.Info("connection established", "adapter", spec.Adapter, "spec", spec.String())
	m.notifyConnect(ctx, spec.Adapter, nil)
	return adapter, nil
}

func (m *Manager) fail(ctx context.Context, span trace.Span, adapter string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	m.logger.Error("failed to establish connection", "adapter", adapter, "err", err)
	m.notifyConnect(ctx, adapter, err)
	return fmt.Errorf("establish connection: %w", err)
}

// Connection returns the active adapter, establishing the default one if none is installed.
func (m *Manager) Connection(ctx context.Context) (ports.Adapter, error) {
	m.mu.RLock()
	adapter := m.adapter
	m.mu.RUnlock()
	if adapter != nil {
		return adapter, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adapter != nil {
		return m.adapter, nil
	}
	return m.establishLocked(ctx, m.defaultSpec)
}

// Connected reports whether an adapter is installed and active.
func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adapter != nil && m.adapter.Active()
}

// Spec returns the spec of the installed adapter.
// ok is false when nothing is installed or the adapter was passed in prebuilt.
func (m *Manager) Spec() (spec Spec, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.spec, m.hasSpec
}

// Disconnect tears down the installed adapter, if any.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnectLocked(context.Background())
}

func (m *Manager) disconnectLocked(ctx context.Context) error {
	if m.adapter == nil {
		return nil
	}
	name := m.spec.Adapter
	if !m.hasSpec {
		name = "custom"
	}

	err := m.adapter.Disconnect()
	m.adapter, m.spec, m.hasSpec = nil, Spec{}, false

	if err != nil {
		m.logger.Warn("adapter disconnect failed", "adapter", name, "err", err)
	} else {
		m.logger.Info("connection closed", "adapter", name)
	}
	if m.hooks.OnDisconnect != nil {
		m.hooks.OnDisconnect(ctx, &domain.ConnectionEvent{Adapter: name, Err: err})
	}
	return err
}

// Reconnect re-runs default resolution and replaces the installed adapter.
func (m *Manager) Reconnect(ctx context.Context) (ports.Adapter, error) {
	return m.Establish(ctx, m.defaultSpec)
}

// UseTestAdapter installs the in-memory adapter, for environments without the real store.
func (m *Manager) UseTestAdapter(ctx context.Context) (ports.Adapter, error) {
	return m.Establish(ctx, Spec{Adapter: TestAdapter})
}

func (m *Manager) notifyConnect(ctx context.Context, adapter string, err error) {
	if m.hooks.OnConnect != nil {
		m.hooks.OnConnect(ctx, &domain.ConnectionEvent{Adapter: adapter, Err: err})
	}
}

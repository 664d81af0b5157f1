package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/definition"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/loader"
	"github.com/aretw0/vanity/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// DefinitionLoader runs the file loading of one pass.
type DefinitionLoader interface {
	LoadAll(ctx context.Context, family domain.Family, guard *loader.Guard, reg loader.Registrar) (int, error)
}

// Registry holds the experiments and metrics loaded from definition files.
// Each family is populated lazily, once, on first access.
// Safe for concurrent use.
type Registry struct {
	loader   DefinitionLoader
	conn     ports.Connector
	loadPath string
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	tracer   trace.Tracer

	mu   sync.RWMutex
	defs map[domain.Family]map[domain.Identifier]domain.Handle
	gen  uint64

	group singleflight.Group
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLifecycleHooks sets the hooks fired on load passes and tracked metrics.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithLoadPath sets the directory reported in logs and load events.
func WithLoadPath(p string) Option {
	return func(r *Registry) {
		r.loadPath = p
	}
}

// New creates an empty Registry. Handles it builds reach storage through conn.
func New(l DefinitionLoader, conn ports.Connector, opts ...Option) *Registry {
	r := &Registry{
		loader:   l,
		conn:     conn,
		loadPath: ".",
		logger:   logging.NewNop(),
		tracer:   otel.Tracer("github.com/aretw0/vanity/pkg/registry"),
		defs:     make(map[domain.Family]map[domain.Identifier]domain.Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the handle named name in family, loading the family if needed.
func (r *Registry) Get(ctx context.Context, family domain.Family, name string) (domain.Handle, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("unknown family %q", family)
	}
	defs, err := r.populate(ctx, family)
	if err != nil {
		return nil, err
	}

	id := domain.Normalize(name)
	r.mu.RLock()
	h, ok := defs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.NotFoundError{Family: family, ID: id}
	}
	return h, nil
}

// Experiment returns the experiment named name.
func (r *Registry) Experiment(ctx context.Context, name string) (*definition.Experiment, error) {
	h, err := r.Get(ctx, domain.FamilyExperiments, name)
	if err != nil {
		return nil, err
	}
	e, ok := h.(*definition.Experiment)
	if !ok {
		return nil, fmt.Errorf("experiment %s is a %T", h.ID(), h)
	}
	return e, nil
}

// Metric returns the metric named name.
func (r *Registry) Metric(ctx context.Context, name string) (*definition.Metric, error) {
	h, err := r.Get(ctx, domain.FamilyMetrics, name)
	if err != nil {
		return nil, err
	}
	m, ok := h.(*definition.Metric)
	if !ok {
		return nil, fmt.Errorf("metric %s is a %T", h.ID(), h)
	}
	return m, nil
}

// All returns a copy of every handle in family.
func (r *Registry) All(ctx context.Context, family domain.Family) (map[domain.Identifier]domain.Handle, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("unknown family %q", family)
	}
	defs, err := r.populate(ctx, family)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.Identifier]domain.Handle, len(defs))
	for id, h := range defs {
		out[id] = h
	}
	return out, nil
}

// Experiments returns every experiment, ordered by identifier.
func (r *Registry) Experiments(ctx context.Context) ([]*definition.Experiment, error) {
	all, err := r.All(ctx, domain.FamilyExperiments)
	if err != nil {
		return nil, err
	}
	out := make([]*definition.Experiment, 0, len(all))
	for _, id := range sortedIDs(all) {
		if e, ok := all[id].(*definition.Experiment); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Metrics returns every metric, ordered by identifier.
func (r *Registry) Metrics(ctx context.Context) ([]*definition.Metric, error) {
	all, err := r.All(ctx, domain.FamilyMetrics)
	if err != nil {
		return nil, err
	}
	out := make([]*definition.Metric, 0, len(all))
	for _, id := range sortedIDs(all) {
		if m, ok := all[id].(*definition.Metric); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Load populates both families now instead of on first access.
func (r *Registry) Load(ctx context.Context) error {
	for _, f := range domain.Families {
		if _, err := r.populate(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Reload discards everything loaded. The next access loads the files again.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.defs = make(map[domain.Family]map[domain.Identifier]domain.Handle)
	r.logger.Info("definitions discarded", "generation", r.gen)
}

// ReloadAndLoad discards everything loaded and loads it again right away.
func (r *Registry) ReloadAndLoad(ctx context.Context) error {
	r.Reload()
	return r.Load(ctx)
}

// Register adds a handle built outside the definition files.
// The family is loaded first; an identifier already present is an error.
func (r *Registry) Register(ctx context.Context, family domain.Family, h domain.Handle) error {
	if h.Family() != family {
		return fmt.Errorf("cannot register %s %s as %s", h.Family().Singular(), h.ID(), family.Singular())
	}
	for {
		if _, err := r.populate(ctx, family); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := r.register(family, h)
		if done {
			return err
		}
		// A Reload discarded the family in between; populate it again.
	}
}

func (r *Registry) register(family domain.Family, h domain.Handle) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defs := r.defs[family]
	if defs == nil {
		return false, nil
	}
	if _, ok := defs[h.ID()]; ok {
		return true, &domain.DuplicateDefinitionError{Family: family, ID: h.ID()}
	}
	defs[h.ID()] = h
	return true, nil
}

// Track records amount occurrences on the named metric.
// Amounts below one count as one.
func (r *Registry) Track(ctx context.Context, name string, amount int) error {
	m, err := r.Metric(ctx, name)
	if err != nil {
		return err
	}
	return m.Track(ctx, amount)
}

// Populated reports whether family has been loaded.
func (r *Registry) Populated(family domain.Family) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[family] != nil
}

func (r *Registry) populate(ctx context.Context, family domain.Family) (map[domain.Identifier]domain.Handle, error) {
	r.mu.RLock()
	defs, gen := r.defs[family], r.gen
	r.mu.RUnlock()
	if defs != nil {
		return defs, nil
	}

	key := fmt.Sprintf("%s/%d", family, gen)
	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		defs, current := r.defs[family], r.gen
		r.mu.RUnlock()
		if defs != nil && current == gen {
			return defs, nil
		}

		// Waiters share this pass, so one caller's cancellation must not fail the rest.
		defs, err := r.load(context.WithoutCancel(ctx), family)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.gen == gen {
			r.defs[family] = defs
		}
		r.mu.Unlock()
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[domain.Identifier]domain.Handle), nil
}

func (r *Registry) load(ctx context.Context, family domain.Family) (map[domain.Identifier]domain.Handle, error) {
	dir := path.Join(r.loadPath, loader.Dir(family))
	ctx, span := r.tracer.Start(ctx, "registry.load", trace.WithAttributes(
		attribute.String("vanity.family", string(family)),
		attribute.String("vanity.path", dir),
	))
	defer span.End()

	r.logger.Info("loading definitions", "family", family, "path", dir)
	start := time.Now()

	p := &pass{registry: r, family: family, defs: make(map[domain.Identifier]domain.Handle)}
	_, err := r.loader.LoadAll(ctx, family, loader.NewGuard(), p)

	event := &domain.LoadEvent{
		Family:   family,
		Path:     dir,
		Count:    len(p.defs),
		Duration: time.Since(start),
		Err:      err,
	}
	if r.hooks.OnLoad != nil {
		r.hooks.OnLoad(ctx, event)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("failed to load definitions", "family", family, "path", dir, "err", err)
		return nil, fmt.Errorf("load %s: %w", family, err)
	}
	span.SetAttributes(attribute.Int("vanity.count", len(p.defs)))
	r.logger.Debug("definitions loaded", "family", family, "count", len(p.defs), "duration", event.Duration)
	return p.defs, nil
}

// pass collects the definitions of one load pass before they are installed.
type pass struct {
	registry *Registry
	family   domain.Family
	defs     map[domain.Identifier]domain.Handle
}

func (p *pass) Define(ctx context.Context, family domain.Family, id domain.Identifier, def *domain.Definition) error {
	if family != p.family {
		return fmt.Errorf("cannot define %s %s while loading %s", family.Singular(), id, p.family)
	}
	if _, ok := p.defs[id]; ok {
		return &domain.DuplicateDefinitionError{Family: family, ID: id}
	}

	h, err := p.registry.build(ctx, family, id, def)
	if err != nil {
		return err
	}
	p.defs[id] = h
	return nil
}

func (p *pass) Defined(family domain.Family, id domain.Identifier) bool {
	if family != p.family {
		return false
	}
	_, ok := p.defs[id]
	return ok
}

func (r *Registry) build(ctx context.Context, family domain.Family, id domain.Identifier, def *domain.Definition) (domain.Handle, error) {
	opts := []definition.Option{definition.WithLifecycleHooks(r.hooks)}
	if family == domain.FamilyMetrics {
		return definition.NewMetric(id, def, r.conn, opts...), nil
	}

	e, err := definition.NewExperiment(id, def, r.conn, opts...)
	if err != nil {
		return nil, err
	}
	for _, m := range e.Metrics() {
		if _, err := r.Metric(ctx, string(m)); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.DefinitionError{ID: id, Msg: fmt.Sprintf("measures unknown metric %s", m)}
			}
			return nil, err
		}
	}
	if err := e.Save(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func sortedIDs(m map[domain.Identifier]domain.Handle) []domain.Identifier {
	ids := make([]domain.Identifier, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

package connection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/vanity/pkg/config"
	"github.com/aretw0/vanity/pkg/domain"
)

// DefaultAdapter is used when no configuration names one.
const DefaultAdapter = "redis"

const maxAliasDepth = 8

// Resolver turns raw connection specifications into a Spec.
type Resolver struct {
	files       config.Files
	environment string
	aliases     config.Source
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConfigDir sets the directory holding vanity.yml and redis.yml.
func WithConfigDir(dir string) ResolverOption {
	return func(r *Resolver) {
		r.files = config.Files{Dir: dir}
	}
}

// WithEnvironment sets the deployment environment used for default resolution.
func WithEnvironment(env string) ResolverOption {
	return func(r *Resolver) {
		r.environment = env
	}
}

// WithAliasSource overrides where aliases are looked up (default: vanity.yml).
func WithAliasSource(src config.Source) ResolverOption {
	return func(r *Resolver) {
		r.aliases = src
	}
}

// NewResolver creates a resolver reading ./config in the development environment
// unless configured otherwise.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		files:       config.Files{Dir: "config"},
		environment: config.DefaultEnvironment,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Environment returns the environment used for default resolution.
func (r *Resolver) Environment() string {
	return r.environment
}

// Resolve normalizes raw into a Spec whose adapter is registered.
// Accepted shapes: nil, Spec, *Spec, string (URI or bare adapter name), Alias,
// map[string]any, map[string]string.
func (r *Resolver) Resolve(raw any) (Spec, error) {
	return r.resolve(raw, 0)
}

func (r *Resolver) resolve(raw any, depth int) (Spec, error) {
	if depth > maxAliasDepth {
		return Spec{}, &domain.ConfigurationError{Msg: "connection aliases nest too deeply (alias loop?)"}
	}

	switch v := raw.(type) {
	case nil:
		entry, err := r.defaultEntry()
		if err != nil {
			return Spec{}, err
		}
		return r.resolve(entry, depth+1)
	case Spec:
		return r.check(v)
	case *Spec:
		if v == nil {
			return r.resolve(nil, depth)
		}
		return r.check(*v)
	case string:
		if bareAdapter.MatchString(v) {
			return r.check(Spec{Adapter: strings.ToLower(v)})
		}
		spec, err := ParseURI(v)
		if err != nil {
			return Spec{}, err
		}
		return r.check(spec)
	case Alias:
		entry, err := r.lookupAlias(string(v))
		if err != nil {
			return Spec{}, err
		}
		return r.resolve(entry, depth+1)
	case map[string]any:
		spec, err := FromMap(v)
		if err != nil {
			return Spec{}, err
		}
		return r.check(spec)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = val
		}
		return r.resolve(m, depth)
	default:
		return Spec{}, &domain.ConfigurationError{Msg: fmt.Sprintf("unsupported connection specification %T", raw)}
	}
}

// bareAdapter matches a string naming only an adapter, such as "mock".
var bareAdapter = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func (r *Resolver) check(spec Spec) (Spec, error) {
	if _, ok := lookupAdapter(spec.Adapter); !ok {
		return spec, &domain.UnknownAdapterError{Adapter: spec.Adapter}
	}
	return spec, nil
}

func (r *Resolver) lookupAlias(name string) (any, error) {
	src := r.aliases
	if src == nil {
		src = r.files.Vanity()
	}
	entry, found, err := src.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("no configuration for %s", name)}
	}
	return entry, nil
}

// defaultEntry picks the raw spec used when none is given:
// vanity.yml[env], then "redis://" + redis.yml[env], then the default adapter.
func (r *Resolver) defaultEntry() (any, error) {
	if vanity := r.files.Vanity(); vanity.Exists() {
		return vanity.MustLookup(r.environment)
	}
	if redis := r.files.Redis(); redis.Exists() {
		entry, err := redis.MustLookup(r.environment)
		if err != nil {
			return nil, err
		}
		return "redis://" + fmt.Sprint(entry), nil
	}
	return Spec{Adapter: DefaultAdapter}, nil
}

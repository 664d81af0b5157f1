package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/vanity/pkg/ports"
)

// Config is what an adapter factory receives.
type Config struct {
	Spec      Spec
	Namespace string
	Logger    *slog.Logger
}

// Factory builds an adapter from a resolved spec.
type Factory func(ctx context.Context, cfg Config) (ports.Adapter, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterAdapter makes an adapter available under name.
// It panics if called twice for the same name or with a nil factory.
func RegisterAdapter(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	name = strings.ToLower(name)
	if factory == nil {
		panic("connection: RegisterAdapter factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("connection: RegisterAdapter called twice for adapter %q", name))
	}
	factories[name] = factory
}

// Adapters returns the sorted names of the registered adapters.
func Adapters() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupAdapter(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[strings.ToLower(name)]
	return f, ok
}

package definition

import (
	"sort"
	"sync"

	"github.com/aretw0/vanity/pkg/domain"
)

// ExperimentType describes a kind of experiment.
type ExperimentType struct {
	// DefaultAlternatives are used when a definition lists none.
	DefaultAlternatives []string

	// MinAlternatives is the smallest number of alternatives allowed.
	MinAlternatives int
}

var (
	typesMu sync.RWMutex
	types   = map[string]ExperimentType{
		domain.DefaultExperimentType: {
			DefaultAlternatives: []string{"false", "true"},
			MinAlternatives:     2,
		},
	}
)

// RegisterType adds or replaces an experiment type.
func RegisterType(name string, t ExperimentType) {
	typesMu.Lock()
	defer typesMu.Unlock()
	types[name] = t
}

// LookupType returns the experiment type registered under name.
func LookupType(name string) (ExperimentType, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	t, ok := types[name]
	return t, ok
}

// Types returns the registered type names, sorted.
func Types() []string {
	typesMu.RLock()
	defer typesMu.RUnlock()
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

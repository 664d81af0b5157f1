package domain

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`\W`)

// Identifier is the normalized key of a definition within its family.
type Identifier string

// Normalize derives an Identifier from a human-readable name:
// lowercased, with every non-word character replaced by an underscore.
func Normalize(name string) Identifier {
	return Identifier(nonWord.ReplaceAllString(strings.ToLower(name), "_"))
}

func (id Identifier) String() string { return string(id) }

// Family is one of the two managed definition kinds.
type Family string

const (
	FamilyExperiments Family = "experiments"
	FamilyMetrics     Family = "metrics"
)

// Families lists every family in load order.
var Families = []Family{FamilyMetrics, FamilyExperiments}

// Singular returns the name of one member of the family, for messages.
func (f Family) Singular() string {
	switch f {
	case FamilyExperiments:
		return "experiment"
	case FamilyMetrics:
		return "metric"
	default:
		return string(f)
	}
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	return f == FamilyExperiments || f == FamilyMetrics
}

// ParseFamily accepts the plural or singular family name.
func ParseFamily(s string) (Family, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "experiments", "experiment":
		return FamilyExperiments, true
	case "metrics", "metric":
		return FamilyMetrics, true
	}
	return "", false
}

// Handle is a loaded definition registered in a family.
type Handle interface {
	ID() Identifier
	Name() string
	Family() Family
}

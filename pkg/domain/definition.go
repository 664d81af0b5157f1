package domain

// DefaultExperimentType is used when a definition does not name a type.
const DefaultExperimentType = "ab_test"

// Definition is the decoded content of a definition file.
// Field tags cover both supported formats (YAML and HCL).
type Definition struct {
	Name         string   `yaml:"name" hcl:"name,optional"`
	Type         string   `yaml:"type" hcl:"type,optional"`
	Description  string   `yaml:"description" hcl:"description,optional"`
	Alternatives []string `yaml:"alternatives" hcl:"alternatives,optional"`
	Metrics      []string `yaml:"metrics" hcl:"metrics,optional"`
	Requires     []string `yaml:"requires" hcl:"requires,optional"`
}

// Package config loads Vanity settings from the environment and the
// environment-keyed YAML files under the configuration directory.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultEnvironment is used when no environment variable names one.
const DefaultEnvironment = "development"

// Settings holds process-level configuration read from the environment.
type Settings struct {
	LoadPath  string `env:"VANITY_LOAD_PATH" envDefault:"experiments"`
	ConfigDir string `env:"VANITY_CONFIG_DIR" envDefault:"config"`
	Namespace string `env:"VANITY_NAMESPACE" envDefault:"vanity:1"`
	LogLevel  string `env:"VANITY_LOG_LEVEL" envDefault:"error"`

	// Deployment environment, first non-empty wins.
	VanityEnv string `env:"VANITY_ENV"`
	RackEnv   string `env:"RACK_ENV"`
	RailsEnv  string `env:"RAILS_ENV"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings parses Settings from the process environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Environment returns the active deployment environment name.
func (s Settings) Environment() string {
	for _, name := range []string{s.VanityEnv, s.RackEnv, s.RailsEnv} {
		if name != "" {
			return name
		}
	}
	return DefaultEnvironment
}

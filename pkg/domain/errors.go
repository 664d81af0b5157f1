package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an experiment or metric identifier is not defined.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDefinition is returned when two definitions resolve to the same identifier.
	ErrDuplicateDefinition = errors.New("duplicate definition")

	// ErrCircularLoad is returned when a definition file re-triggers its own load.
	ErrCircularLoad = errors.New("circular dependency detected")

	// ErrUnknownAdapter is returned when a connection spec names an adapter with no implementation.
	ErrUnknownAdapter = errors.New("unknown adapter")

	// ErrConfiguration is returned when external configuration is missing or malformed.
	ErrConfiguration = errors.New("configuration error")

	// ErrDefinition is returned when a definition file is malformed.
	ErrDefinition = errors.New("invalid definition")
)

// NotFoundError reports a lookup of an undefined identifier.
type NotFoundError struct {
	Family Family
	ID     Identifier
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s %s", e.Family.Singular(), e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateDefinitionError reports an identifier registered twice in the same family.
type DuplicateDefinitionError struct {
	Family Family
	ID     Identifier
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("%s %s already defined once", e.Family.Singular(), e.ID)
}

func (e *DuplicateDefinitionError) Unwrap() error { return ErrDuplicateDefinition }

// CircularLoadError reports a definition file that is already on the load stack.
// Stack holds the files being loaded, outermost first, ending with the repeated file.
type CircularLoadError struct {
	Stack []string
}

func (e *CircularLoadError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCircularLoad, strings.Join(e.Stack, " => "))
}

func (e *CircularLoadError) Unwrap() error { return ErrCircularLoad }

// UnknownAdapterError reports an adapter name missing from the adapter table.
type UnknownAdapterError struct {
	Adapter string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("could not find adapter %q", e.Adapter)
}

func (e *UnknownAdapterError) Unwrap() error { return ErrUnknownAdapter }

// ConfigurationError reports a missing or malformed configuration entry.
type ConfigurationError struct {
	Source string
	Msg    string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := e.Msg
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// DefinitionError reports a definition file that could not be decoded or applied.
type DefinitionError struct {
	Path string
	ID   Identifier
	Msg  string
}

func (e *DefinitionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.ID, e.Msg)
}

func (e *DefinitionError) Unwrap() error { return ErrDefinition }
